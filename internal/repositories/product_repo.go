package repositories

import (
	"context"
	"errors"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"
)

var (
	// ErrProductNotFound is returned when no matching product row exists.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateSlug is returned when a write would break slug uniqueness.
	ErrDuplicateSlug = errors.New("product slug already exists")
	// ErrUnknownCategory is returned when a product references a missing category.
	ErrUnknownCategory = errors.New("category does not exist")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	query.Source[models.Product]

	// GetByID returns ErrProductNotFound when the id is absent, or soft-deleted and
	// includeDeleted is false.
	GetByID(ctx context.Context, id string, includeDeleted bool) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the given columns of a non-deleted product.
	Update(ctx context.Context, product *models.Product, columns []string) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// Delete removes the row permanently.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
