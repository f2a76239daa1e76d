package validation_test

import (
	"errors"
	"testing"

	"catalog/internal/models"
	"catalog/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate() models.ProductCreateRequest {
	return models.ProductCreateRequest{
		Name:       "Laptop",
		Slug:       "laptop",
		CategoryID: uuid.New().String(),
		Price:      decimal.RequireFromString("999.99"),
	}
}

func TestValidate_CreateRequest(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Struct(validCreate()))

	zero := decimal.Zero
	tests := []struct {
		name   string
		mutate func(r *models.ProductCreateRequest)
		field  string
	}{
		{"price not positive", func(r *models.ProductCreateRequest) { r.Price = decimal.NewFromInt(-1) }, "price"},
		{"compare price zero", func(r *models.ProductCreateRequest) { r.CompareAtPrice = &zero }, "compare_at_price"},
		{"price rounds to zero", func(r *models.ProductCreateRequest) { r.Price = decimal.RequireFromString("0.001") }, "price"},
		{"cost price rounds to zero", func(r *models.ProductCreateRequest) {
			cost := decimal.RequireFromString("0.004")
			r.CostPrice = &cost
		}, "cost_price"},
		{"short name", func(r *models.ProductCreateRequest) { r.Name = "ab" }, "name"},
		{"bad category", func(r *models.ProductCreateRequest) { r.CategoryID = "electronics" }, "category_id"},
		{"bad status", func(r *models.ProductCreateRequest) { r.Status = "SOLD" }, "status"},
		{"bad currency", func(r *models.ProductCreateRequest) { r.Currency = "XXXX" }, "currency"},
		{"negative quantity", func(r *models.ProductCreateRequest) {
			q := -1
			r.Quantity = &q
		}, "quantity"},
		{"second hand without condition", func(r *models.ProductCreateRequest) { r.IsSecondHand = true }, "condition"},
		{"zero dimension", func(r *models.ProductCreateRequest) {
			r.Dimensions = &models.Dimensions{Length: 1, Width: 0, Height: 2}
		}, "dimensions.width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)

			err := v.Struct(req)
			require.Error(t, err)
			assert.Contains(t, validation.Details(err), tt.field)
		})
	}
}

func TestValidate_SecondHandWithCondition(t *testing.T) {
	req := validCreate()
	req.IsSecondHand = true
	cond := models.ConditionGood
	req.Condition = &cond

	assert.NoError(t, validation.New().Struct(req))
}

func TestValidate_ConditionWithoutSecondHand(t *testing.T) {
	req := validCreate()
	cond := models.ConditionFair
	req.Condition = &cond

	assert.NoError(t, validation.New().Struct(req))
}

func TestDetails_NonValidatorError(t *testing.T) {
	details := validation.Details(errors.New("boom"))
	assert.Equal(t, "boom", details["_"])
}
