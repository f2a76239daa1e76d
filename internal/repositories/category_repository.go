package repositories

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCategoryNotFound is returned when no matching category exists.
var ErrCategoryNotFound = errors.New("category not found")

// GORMCategoryRepository stores product categories.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// FirstOrCreate returns the category with the given slug, creating it when absent.
func (r *GORMCategoryRepository) FirstOrCreate(ctx context.Context, name, slug string) (*models.Category, error) {
	category := models.Category{ID: uuid.New().String(), Name: name, Slug: slug}
	err := r.db.WithContext(ctx).
		Where(models.Category{Slug: slug}).
		Attrs(category).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category %s: %w", slug, err)
	}
	return &category, nil
}

// GetBySlug retrieves a category by slug.
func (r *GORMCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %s: %w", slug, err)
	}
	return &category, nil
}

// List returns all categories ordered by name.
func (r *GORMCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
