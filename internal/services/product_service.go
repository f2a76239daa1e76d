package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/cache"
	"catalog/internal/models"
	"catalog/internal/query"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when a product is absent or soft-deleted.
var ErrProductNotFound = errors.New("product not found")

// SearchLimit caps the rows returned by SearchProducts.
const SearchLimit = 10

// Routing keys of published product events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher delivers product events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ProductEvent is the payload of every product event.
type ProductEvent struct {
	Type       string          `json:"type"`
	ProductID  string          `json:"product_id"`
	Slug       string          `json:"slug"`
	Permanent  bool            `json:"permanent,omitempty"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
	cache    cache.ListCache
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// ProductOption configures optional collaborators of a ProductService.
type ProductOption func(*ProductService)

// WithListCache caches list pages in c.
func WithListCache(c cache.ListCache) ProductOption {
	return func(s *ProductService) { s.cache = c }
}

// WithEventPublisher publishes product events through p.
func WithEventPublisher(p EventPublisher) ProductOption {
	return func(s *ProductService) { s.events = p }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ProductOption {
	return func(s *ProductService) { s.now = now }
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, logger *zap.Logger, opts ...ProductOption) *ProductService {
	s := &ProductService{
		repo:     repo,
		validate: validation.New(),
		cache:    cache.NopCache{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates req, applies defaults and stores a new product owned by ownerID.
func (s *ProductService) Create(ctx context.Context, req *models.ProductCreateRequest, ownerID *string) (*models.Product, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, apperrors.Validation("invalid product payload", validation.Details(err))
	}

	product := req.ToProduct()
	product.ID = uuid.New().String()
	product.CreatedBy = ownerID
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.writeError("create", product, err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("slug", product.Slug))
	s.afterWrite(ctx, EventProductCreated, product, false)
	return product, nil
}

// GetProductByID returns a non-deleted product, or ErrProductNotFound.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.get(ctx, id, false)
}

// GetProductByIDIncludingDeleted returns a product even when it is soft-deleted.
func (s *ProductService) GetProductByIDIncludingDeleted(ctx context.Context, id string) (*models.Product, error) {
	return s.get(ctx, id, true)
}

func (s *ProductService) get(ctx context.Context, id string, includeDeleted bool) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id, includeDeleted)
	if errors.Is(err, repositories.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, apperrors.Database("failed to load product", err)
	}
	return product, nil
}

// Update applies the present fields of req to a non-deleted product. Only the changed
// columns and updated_at are written.
func (s *ProductService) Update(ctx context.Context, id string, req *models.ProductUpdateRequest) (*models.Product, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, apperrors.Validation("invalid product payload", validation.Details(err))
	}

	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := req.ApplyTo(product)
	if product.IsSecondHand && product.Condition == nil {
		return nil, apperrors.Validation("invalid product payload", map[string]any{
			"condition": "is required when is_second_hand is true",
		})
	}

	product.UpdatedAt = s.now()
	columns = append(columns, "updated_at")
	// The preloaded category may be stale once category_id changes.
	product.Category = nil

	if err := s.repo.Update(ctx, product, columns); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, s.writeError("update", product, err)
	}

	s.logger.Info("product updated", zap.String("product_id", product.ID), zap.Strings("columns", columns))
	s.afterWrite(ctx, EventProductUpdated, product, false)
	return product, nil
}

// Delete soft-deletes a product, or removes it when permanent is set. It reports false
// when no non-deleted product has the given id.
func (s *ProductService) Delete(ctx context.Context, id string, permanent bool) (bool, error) {
	product, err := s.GetProductByID(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if permanent {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id, s.now())
	}
	if errors.Is(err, repositories.ErrProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Database("failed to delete product", err)
	}

	s.logger.Info("product deleted", zap.String("product_id", id), zap.Bool("permanent", permanent))
	s.afterWrite(ctx, EventProductDeleted, product, permanent)
	return true, nil
}

// ProductQuery builds the query for filter and sort over non-deleted products.
func (s *ProductService) ProductQuery(filter query.ProductFilter, sort query.Sort) query.ProductQuery {
	return query.Build(filter, sort)
}

// ListProducts returns page p of the products matching filter, sorted by sort. p is
// clamped into the accepted range first.
func (s *ProductService) ListProducts(ctx context.Context, filter query.ProductFilter, sort query.Sort, p query.Page) (*query.Result[models.Product], error) {
	q := s.ProductQuery(filter, sort)
	p = p.Normalize()
	key := cache.ListKey(q, p)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached query.Result[models.Product]
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("list cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := query.Paginate[models.Product](ctx, s.repo, q, p)
	if err != nil {
		return nil, apperrors.Database("failed to list products", err)
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.logger.Warn("list cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// SearchProducts returns up to SearchLimit active products matching term.
func (s *ProductService) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	status := models.StatusActive
	term = strings.TrimSpace(term)
	q := s.ProductQuery(query.ProductFilter{Search: &term, Status: &status}, query.Sort{})

	products, err := query.Bounded[models.Product](ctx, s.repo, q, SearchLimit)
	if err != nil {
		return nil, apperrors.Database("failed to search products", err)
	}
	return products, nil
}

// Ping checks the product store.
func (s *ProductService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperrors.Database("product store unavailable", err)
	}
	return nil
}

func (s *ProductService) writeError(op string, product *models.Product, err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateSlug):
		return apperrors.Conflict("product slug already exists", map[string]any{"slug": product.Slug})
	case errors.Is(err, repositories.ErrUnknownCategory):
		return apperrors.Validation("invalid product payload", map[string]any{"category_id": "category does not exist"})
	}
	s.logger.Error("product write failed", zap.String("op", op), zap.String("product_id", product.ID), zap.Error(err))
	return apperrors.Database("failed to "+op+" product", err)
}

// afterWrite drops cached list pages and publishes an event. Failures are logged only.
func (s *ProductService) afterWrite(ctx context.Context, eventType string, product *models.Product, permanent bool) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
	if s.events == nil {
		return
	}
	event := ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		Slug:       product.Slug,
		Permanent:  permanent,
		OccurredAt: s.now(),
	}
	if eventType != EventProductDeleted {
		event.Product = product
	}
	if err := s.events.Publish(ctx, eventType, event); err != nil {
		s.logger.Warn("product event publish failed", zap.String("event", eventType), zap.String("product_id", product.ID), zap.Error(err))
	}
}
