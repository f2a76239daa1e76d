package models

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// ProductFields is the allow-list of payload keys that may reach a stored product.
var ProductFields = map[string]struct{}{
	"name": {}, "slug": {}, "description": {}, "short_description": {}, "category_id": {},
	"price": {}, "compare_at_price": {}, "cost_price": {}, "currency": {}, "sku": {}, "barcode": {},
	"quantity": {}, "low_stock_threshold": {}, "status": {}, "is_featured": {}, "is_visible": {},
	"weight": {}, "weight_unit": {}, "dimensions": {}, "is_second_hand": {}, "condition": {},
	"condition_description": {}, "meta_title": {}, "meta_description": {}, "meta_keywords": {},
}

// UnknownProductFields returns the top-level keys of a JSON object body that are not in
// ProductFields, sorted. Bodies that are not JSON objects yield nil.
func UnknownProductFields(body []byte) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	var unknown []string
	for key := range raw {
		if _, ok := ProductFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// ProductCreateRequest is the payload accepted when creating a product.
type ProductCreateRequest struct {
	Name                 string            `json:"name" validate:"required,min=3,max=255"`
	Slug                 string            `json:"slug" validate:"required,min=3,max=275"`
	Description          *string           `json:"description"`
	ShortDescription     *string           `json:"short_description" validate:"omitempty,max=500"`
	CategoryID           string            `json:"category_id" validate:"required,uuid"`
	Price                decimal.Decimal   `json:"price" validate:"required,money"`
	CompareAtPrice       *decimal.Decimal  `json:"compare_at_price" validate:"omitempty,money"`
	CostPrice            *decimal.Decimal  `json:"cost_price" validate:"omitempty,money"`
	Currency             string            `json:"currency" validate:"omitempty,iso4217"`
	SKU                  *string           `json:"sku" validate:"omitempty,max=50"`
	Barcode              *string           `json:"barcode" validate:"omitempty,max=50"`
	Quantity             *int              `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold    *int              `json:"low_stock_threshold" validate:"omitempty,gte=1"`
	Status               ProductStatus     `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED OUT_OF_STOCK"`
	IsFeatured           bool              `json:"is_featured"`
	IsVisible            *bool             `json:"is_visible"`
	Weight               *decimal.Decimal  `json:"weight" validate:"omitempty,gt=0"`
	WeightUnit           string            `json:"weight_unit" validate:"omitempty,max=10"`
	Dimensions           *Dimensions       `json:"dimensions"`
	IsSecondHand         bool              `json:"is_second_hand"`
	Condition            *ProductCondition `json:"condition" validate:"omitempty,oneof=NEW LIKE_NEW EXCELLENT GOOD FAIR"`
	ConditionDescription *string           `json:"condition_description"`
	MetaTitle            *string           `json:"meta_title" validate:"omitempty,max=100"`
	MetaDescription      *string           `json:"meta_description" validate:"omitempty,max=255"`
	MetaKeywords         *string           `json:"meta_keywords" validate:"omitempty,max=255"`
}

// ToProduct builds a product from the request, filling in defaults for omitted fields.
func (r *ProductCreateRequest) ToProduct() *Product {
	p := &Product{
		Name:                 r.Name,
		Slug:                 r.Slug,
		Description:          r.Description,
		ShortDescription:     r.ShortDescription,
		CategoryID:           r.CategoryID,
		Price:                r.Price,
		CompareAtPrice:       r.CompareAtPrice,
		CostPrice:            r.CostPrice,
		Currency:             "USD",
		SKU:                  r.SKU,
		Barcode:              r.Barcode,
		LowStockThreshold:    5,
		Status:               StatusDraft,
		IsFeatured:           r.IsFeatured,
		IsVisible:            true,
		Weight:               r.Weight,
		WeightUnit:           "kg",
		IsSecondHand:         r.IsSecondHand,
		Condition:            r.Condition,
		ConditionDescription: r.ConditionDescription,
		MetaTitle:            r.MetaTitle,
		MetaDescription:      r.MetaDescription,
		MetaKeywords:         r.MetaKeywords,
	}
	if r.Currency != "" {
		p.Currency = r.Currency
	}
	if r.Quantity != nil {
		p.Quantity = *r.Quantity
	}
	if r.LowStockThreshold != nil {
		p.LowStockThreshold = *r.LowStockThreshold
	}
	if r.Status != "" {
		p.Status = r.Status
	}
	if r.IsVisible != nil {
		p.IsVisible = *r.IsVisible
	}
	if r.WeightUnit != "" {
		p.WeightUnit = r.WeightUnit
	}
	p.SetDimensions(r.Dimensions)
	return p
}

// ProductUpdateRequest is a partial update. Nil fields are left untouched.
type ProductUpdateRequest struct {
	Name                 *string           `json:"name" validate:"omitempty,min=3,max=255"`
	Slug                 *string           `json:"slug" validate:"omitempty,min=3,max=275"`
	Description          *string           `json:"description"`
	ShortDescription     *string           `json:"short_description" validate:"omitempty,max=500"`
	CategoryID           *string           `json:"category_id" validate:"omitempty,uuid"`
	Price                *decimal.Decimal  `json:"price" validate:"omitempty,money"`
	CompareAtPrice       *decimal.Decimal  `json:"compare_at_price" validate:"omitempty,money"`
	CostPrice            *decimal.Decimal  `json:"cost_price" validate:"omitempty,money"`
	Currency             *string           `json:"currency" validate:"omitempty,iso4217"`
	SKU                  *string           `json:"sku" validate:"omitempty,max=50"`
	Barcode              *string           `json:"barcode" validate:"omitempty,max=50"`
	Quantity             *int              `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold    *int              `json:"low_stock_threshold" validate:"omitempty,gte=1"`
	Status               *ProductStatus    `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED OUT_OF_STOCK"`
	IsFeatured           *bool             `json:"is_featured"`
	IsVisible            *bool             `json:"is_visible"`
	Weight               *decimal.Decimal  `json:"weight" validate:"omitempty,gt=0"`
	WeightUnit           *string           `json:"weight_unit" validate:"omitempty,max=10"`
	Dimensions           *Dimensions       `json:"dimensions"`
	IsSecondHand         *bool             `json:"is_second_hand"`
	Condition            *ProductCondition `json:"condition" validate:"omitempty,oneof=NEW LIKE_NEW EXCELLENT GOOD FAIR"`
	ConditionDescription *string           `json:"condition_description"`
	MetaTitle            *string           `json:"meta_title" validate:"omitempty,max=100"`
	MetaDescription      *string           `json:"meta_description" validate:"omitempty,max=255"`
	MetaKeywords         *string           `json:"meta_keywords" validate:"omitempty,max=255"`
}

// productSetter copies one field from an update request onto a product and reports whether
// the field was present.
type productSetter struct {
	column string
	apply  func(r *ProductUpdateRequest, p *Product) bool
}

func setIf[T any](src *T, dst *T) bool {
	if src == nil {
		return false
	}
	*dst = *src
	return true
}

func setPtrIf[T any](src *T, dst **T) bool {
	if src == nil {
		return false
	}
	v := *src
	*dst = &v
	return true
}

var productSetters = []productSetter{
	{"name", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Name, &p.Name) }},
	{"slug", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Slug, &p.Slug) }},
	{"description", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.Description, &p.Description) }},
	{"short_description", func(r *ProductUpdateRequest, p *Product) bool {
		return setPtrIf(r.ShortDescription, &p.ShortDescription)
	}},
	{"category_id", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.CategoryID, &p.CategoryID) }},
	{"price", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Price, &p.Price) }},
	{"compare_at_price", func(r *ProductUpdateRequest, p *Product) bool {
		return setPtrIf(r.CompareAtPrice, &p.CompareAtPrice)
	}},
	{"cost_price", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.CostPrice, &p.CostPrice) }},
	{"currency", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Currency, &p.Currency) }},
	{"sku", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.SKU, &p.SKU) }},
	{"barcode", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.Barcode, &p.Barcode) }},
	{"quantity", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Quantity, &p.Quantity) }},
	{"low_stock_threshold", func(r *ProductUpdateRequest, p *Product) bool {
		return setIf(r.LowStockThreshold, &p.LowStockThreshold)
	}},
	{"status", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.Status, &p.Status) }},
	{"is_featured", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.IsFeatured, &p.IsFeatured) }},
	{"is_visible", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.IsVisible, &p.IsVisible) }},
	{"weight", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.Weight, &p.Weight) }},
	{"weight_unit", func(r *ProductUpdateRequest, p *Product) bool { return setIf(r.WeightUnit, &p.WeightUnit) }},
	{"dimensions", func(r *ProductUpdateRequest, p *Product) bool {
		if r.Dimensions == nil {
			return false
		}
		p.SetDimensions(r.Dimensions)
		return true
	}},
	{"is_second_hand", func(r *ProductUpdateRequest, p *Product) bool {
		return setIf(r.IsSecondHand, &p.IsSecondHand)
	}},
	{"condition", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.Condition, &p.Condition) }},
	{"condition_description", func(r *ProductUpdateRequest, p *Product) bool {
		return setPtrIf(r.ConditionDescription, &p.ConditionDescription)
	}},
	{"meta_title", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.MetaTitle, &p.MetaTitle) }},
	{"meta_description", func(r *ProductUpdateRequest, p *Product) bool {
		return setPtrIf(r.MetaDescription, &p.MetaDescription)
	}},
	{"meta_keywords", func(r *ProductUpdateRequest, p *Product) bool { return setPtrIf(r.MetaKeywords, &p.MetaKeywords) }},
}

// ApplyTo copies every present field onto p and returns the columns that were set, in
// allow-list order.
func (r *ProductUpdateRequest) ApplyTo(p *Product) []string {
	var columns []string
	for _, s := range productSetters {
		if s.apply(r, p) {
			columns = append(columns, s.column)
		}
	}
	return columns
}
