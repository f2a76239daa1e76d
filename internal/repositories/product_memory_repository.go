package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"catalog/internal/models"
	"catalog/internal/query"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// Category references are not checked.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
		now:      time.Now,
	}
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string, includeDeleted bool) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok || (product.IsDeleted && !includeDeleted) {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := r.products[product.ID]; ok || r.slugTaken(product.Slug, product.ID) {
		return ErrDuplicateSlug
	}
	now := r.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	stored := *product
	stored.Category = nil
	r.products[product.ID] = stored
	return nil
}

// Update replaces a non-deleted product. The stored creation time is kept.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok || existing.IsDeleted {
		return ErrProductNotFound
	}
	if r.slugTaken(product.Slug, product.ID) {
		return ErrDuplicateSlug
	}
	stored := *product
	stored.Category = nil
	stored.CreatedAt = existing.CreatedAt
	stored.IsDeleted = existing.IsDeleted
	stored.DeletedAt = existing.DeletedAt
	r.products[product.ID] = stored
	return nil
}

// SoftDelete flags a product as deleted.
func (r *MemoryProductRepository) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.IsDeleted {
		return ErrProductNotFound
	}
	product.IsDeleted = true
	product.DeletedAt = &at
	product.UpdatedAt = at
	r.products[id] = product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// Count returns the number of products matching q.
func (r *MemoryProductRepository) Count(_ context.Context, q query.ProductQuery) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if q.Match(&p) {
			n++
		}
	}
	return n, nil
}

// Find returns one window of the products matching q, in q's order.
func (r *MemoryProductRepository) Find(_ context.Context, q query.ProductQuery, offset, limit int) ([]models.Product, error) {
	r.mu.RLock()
	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if q.Match(&p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Product) int {
		return q.Compare(&a, &b)
	})
	if offset < 0 || offset >= len(matched) {
		return []models.Product{}, nil
	}
	end := len(matched)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// Ping always succeeds.
func (r *MemoryProductRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryProductRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}
