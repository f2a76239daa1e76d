package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductStatus is the publication state of a product.
type ProductStatus string

const (
	StatusDraft      ProductStatus = "DRAFT"
	StatusActive     ProductStatus = "ACTIVE"
	StatusArchived   ProductStatus = "ARCHIVED"
	StatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// ProductCondition describes the state of a second-hand product.
type ProductCondition string

const (
	ConditionNew       ProductCondition = "NEW"
	ConditionLikeNew   ProductCondition = "LIKE_NEW"
	ConditionExcellent ProductCondition = "EXCELLENT"
	ConditionGood      ProductCondition = "GOOD"
	ConditionFair      ProductCondition = "FAIR"
)

// Dimensions holds the physical size of a product. All three values are required together.
type Dimensions struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Product represents a product in the catalog.
type Product struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name             string          `json:"name" gorm:"type:varchar(255);not null"`
	Slug             string          `json:"slug" gorm:"type:varchar(275);uniqueIndex;not null"`
	Description      *string         `json:"description"`
	ShortDescription *string         `json:"short_description" gorm:"type:varchar(500)"`
	CategoryID       string          `json:"category_id" gorm:"type:varchar(36);index"`
	Category         *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(16,2);not null;index"`
	CompareAtPrice   *decimal.Decimal `json:"compare_at_price" gorm:"type:decimal(16,2)"`
	CostPrice        *decimal.Decimal `json:"cost_price" gorm:"type:decimal(16,2)"`
	Currency         string          `json:"currency" gorm:"type:varchar(3);default:USD"`
	SKU              *string         `json:"sku" gorm:"type:varchar(50)"`
	Barcode          *string         `json:"barcode" gorm:"type:varchar(50)"`

	Quantity          int `json:"quantity" gorm:"not null;default:0"`
	LowStockThreshold int `json:"low_stock_threshold" gorm:"not null;default:5"`

	Status     ProductStatus `json:"status" gorm:"type:varchar(20);not null;default:DRAFT;index"`
	IsFeatured bool          `json:"is_featured" gorm:"not null;default:false"`
	IsVisible  bool          `json:"is_visible" gorm:"not null"`

	Weight     *decimal.Decimal                `json:"weight" gorm:"type:decimal(10,3)"`
	WeightUnit string                          `json:"weight_unit" gorm:"type:varchar(10);default:kg"`
	Dimensions *datatypes.JSONType[Dimensions] `json:"dimensions"`

	IsSecondHand         bool              `json:"is_second_hand" gorm:"not null;default:false"`
	Condition            *ProductCondition `json:"condition" gorm:"type:varchar(20)"`
	ConditionDescription *string           `json:"condition_description"`

	MetaTitle       *string `json:"meta_title" gorm:"type:varchar(100)"`
	MetaDescription *string `json:"meta_description" gorm:"type:varchar(255)"`
	MetaKeywords    *string `json:"meta_keywords" gorm:"type:varchar(255)"`

	CreatedBy *string `json:"created_by,omitempty" gorm:"type:varchar(36)"`

	IsDeleted bool       `json:"-" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DimensionsValue returns the decoded dimensions, or nil when none are stored.
func (p *Product) DimensionsValue() *Dimensions {
	if p.Dimensions == nil {
		return nil
	}
	d := p.Dimensions.Data()
	return &d
}

// SetDimensions stores d, or clears the column when d is nil.
func (p *Product) SetDimensions(d *Dimensions) {
	if d == nil {
		p.Dimensions = nil
		return
	}
	v := datatypes.NewJSONType(*d)
	p.Dimensions = &v
}

// IsInStock reports whether any inventory is left.
func (p *Product) IsInStock() bool {
	return p.Quantity > 0
}

// IsLowStock reports whether inventory is at or below the warning threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity > 0 && p.Quantity <= p.LowStockThreshold
}

// DiscountPercentage is the whole-number discount against the compare-at price.
func (p *Product) DiscountPercentage() *int {
	if p.CompareAtPrice == nil || !p.CompareAtPrice.GreaterThan(p.Price) {
		return nil
	}
	pct := int(p.CompareAtPrice.Sub(p.Price).Div(*p.CompareAtPrice).Mul(decimal.NewFromInt(100)).IntPart())
	return &pct
}

// ProductResponse is the public representation of a product.
type ProductResponse struct {
	Product
	IsInStock          bool `json:"is_in_stock"`
	IsLowStock         bool `json:"is_low_stock"`
	DiscountPercentage *int `json:"discount_percentage"`
}

// NewProductResponse decorates p with its derived stock and pricing fields.
func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		Product:            *p,
		IsInStock:          p.IsInStock(),
		IsLowStock:         p.IsLowStock(),
		DiscountPercentage: p.DiscountPercentage(),
	}
}

// ProductListResponse is a single page of products.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Pages int               `json:"pages"`
}
