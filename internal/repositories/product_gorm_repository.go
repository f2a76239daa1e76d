package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product, with its category, by ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*models.Product, error) {
	tx := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id)
	if !includeDeleted {
		tx = tx.Where("is_deleted = ?", false)
	}

	var product models.Product
	if err := tx.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product, generating its ID when empty.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translateWriteError(err))
	}
	return nil
}

// Update writes the given columns of a non-deleted product in a single statement.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(product).
		Where("is_deleted = ?", false).
		Select(columns).
		Omit(clause.Associations).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", translateWriteError(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SoftDelete flags a product as deleted and stamps the deletion time.
func (r *GORMProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to soft delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product row permanently.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Count returns the number of products matching q.
func (r *GORMProductRepository) Count(ctx context.Context, q query.ProductQuery) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(q.Scope).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Find returns one window of the products matching q, in q's order.
func (r *GORMProductRepository) Find(ctx context.Context, q query.ProductQuery, offset, limit int) ([]models.Product, error) {
	// GORM ignores a negative offset, which would return the first page.
	if offset < 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Scopes(q.Scope, q.Order).
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// Ping checks that the database is reachable.
func (r *GORMProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// translateWriteError maps driver constraint violations to repository errors. GORM
// translates them when the dialector supports it; the pgconn codes cover connections opened
// without TranslateError.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateSlug
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrUnknownCategory
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return ErrDuplicateSlug
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		return ErrUnknownCategory
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicateSlug
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return ErrUnknownCategory
	}
	return err
}
