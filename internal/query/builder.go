// Package query builds catalog product queries and paginates them.
//
// A ProductQuery is a description, not a result: repositories apply it to a *gorm.DB
// (Scope and Order) or evaluate it in memory (Match and Compare). Both paths share the
// same predicate so storage backends agree on what a filter means.
package query

import (
	"fmt"
	"strings"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSortField is used when a sort field is empty or unknown.
const DefaultSortField = "created_at"

// UnicodeLowerFunc is the SQL function that folds case like strings.ToLower. SQLite's
// LOWER only folds ASCII, so internal/database registers this function on every sqlite
// connection. Other dialects use LOWER.
const UnicodeLowerFunc = "catalog_lower"

// ProductFilter holds the optional filters of a product query. Nil fields are not applied.
type ProductFilter struct {
	CategoryID *string
	Search     *string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	IsFeatured *bool
	Status     *models.ProductStatus
}

// Sort names a column and a direction ("asc" or "desc").
type Sort struct {
	Field     string
	Direction string
}

// sortColumns maps accepted sort names to their columns.
var sortColumns = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"name":        "name",
	"slug":        "slug",
	"price":       "price",
	"quantity":    "quantity",
	"status":      "status",
	"is_featured": "is_featured",
}

// ProductQuery is a normalized, composable product query.
type ProductQuery struct {
	filter         ProductFilter
	search         string
	sortColumn     string
	ascending      bool
	includeDeleted bool
}

// Build normalizes filter and sort into a ProductQuery over non-deleted products.
func Build(filter ProductFilter, sort Sort) ProductQuery {
	q := ProductQuery{filter: filter, sortColumn: DefaultSortField}

	if filter.Search != nil {
		q.search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}
	if q.search == "" {
		q.filter.Search = nil
	}

	if col, ok := sortColumns[strings.ToLower(strings.TrimSpace(sort.Field))]; ok {
		q.sortColumn = col
	}
	q.ascending = strings.EqualFold(strings.TrimSpace(sort.Direction), "asc")
	return q
}

// WithDeleted returns a copy of q that also matches soft-deleted products.
func (q ProductQuery) WithDeleted() ProductQuery {
	q.includeDeleted = true
	return q
}

// Filter returns the filter q was built from, with a blank search cleared.
func (q ProductQuery) Filter() ProductFilter {
	return q.filter
}

// SortColumn is the resolved sort column.
func (q ProductQuery) SortColumn() string {
	return q.sortColumn
}

// Ascending reports the resolved sort direction.
func (q ProductQuery) Ascending() bool {
	return q.ascending
}

// IncludesDeleted reports whether soft-deleted products are matched.
func (q ProductQuery) IncludesDeleted() bool {
	return q.includeDeleted
}

// Scope applies the filter predicates to db. It adds no ordering, so it is safe for counts.
func (q ProductQuery) Scope(db *gorm.DB) *gorm.DB {
	if !q.includeDeleted {
		db = db.Where("is_deleted = ?", false)
	}
	f := q.filter
	if f.CategoryID != nil {
		db = db.Where("category_id = ?", *f.CategoryID)
	}
	if f.Search != nil {
		lower := "LOWER"
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			lower = UnicodeLowerFunc
		}
		pattern := "%" + escapeLike(q.search) + "%"
		db = db.Where(
			fmt.Sprintf(`(%[1]s(name) LIKE ? ESCAPE '\' OR %[1]s(COALESCE(description, '')) LIKE ? ESCAPE '\' OR %[1]s(COALESCE(short_description, '')) LIKE ? ESCAPE '\')`, lower),
			pattern, pattern, pattern,
		)
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}
	if f.IsFeatured != nil {
		db = db.Where("is_featured = ?", *f.IsFeatured)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

// Order applies the sort column, with id as a tiebreaker in the same direction.
func (q ProductQuery) Order(db *gorm.DB) *gorm.DB {
	desc := !q.ascending
	return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: q.sortColumn}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}})
}

// Match evaluates the filter predicates against p.
func (q ProductQuery) Match(p *models.Product) bool {
	if !q.includeDeleted && p.IsDeleted {
		return false
	}
	f := q.filter
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.Search != nil && !q.matchesSearch(p) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	return true
}

func (q ProductQuery) matchesSearch(p *models.Product) bool {
	fields := []string{p.Name, deref(p.Description), deref(p.ShortDescription)}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q.search) {
			return true
		}
	}
	return false
}

// Compare orders a and b the way Order does: negative when a sorts first.
func (q ProductQuery) Compare(a, b *models.Product) int {
	c := compareColumn(q.sortColumn, a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if !q.ascending {
		c = -c
	}
	return c
}

func compareColumn(column string, a, b *models.Product) int {
	switch column {
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "slug":
		return strings.Compare(a.Slug, b.Slug)
	case "price":
		return a.Price.Cmp(b.Price)
	case "quantity":
		return compareInt(a.Quantity, b.Quantity)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "is_featured":
		return compareInt(boolInt(a.IsFeatured), boolInt(b.IsFeatured))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
