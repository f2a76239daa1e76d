package handlers

import (
	"errors"
	"strconv"
	"strings"

	"catalog/internal/apperrors"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/query"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validation.New(),
		logger:         logger,
	}
}

// RegisterRoutes registers product routes. Reads are public; writes pass through guards.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Get("/:id", h.HandleGet)

	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), handler)
	}
	products.Post("/", write(h.HandleCreate)...)
	products.Put("/:id", write(h.HandleUpdate)...)
	products.Delete("/:id", write(h.HandleDelete)...)
}

// ListQuery holds the query parameters of GET /products.
type ListQuery struct {
	Page      int    `query:"page" json:"page" validate:"gte=1,lte=10000000"`
	Size      int    `query:"size" json:"size" validate:"gte=1,lte=100"`
	Category  string `query:"category" json:"category" validate:"omitempty,uuid"`
	Search    string `query:"search" json:"search" validate:"max=255"`
	MinPrice  string `query:"min_price" json:"min_price" validate:"omitempty,numeric"`
	MaxPrice  string `query:"max_price" json:"max_price" validate:"omitempty,numeric"`
	Featured  string `query:"featured" json:"featured" validate:"omitempty,oneof=true false 1 0"`
	Status    string `query:"status" json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED OUT_OF_STOCK"`
	SortBy    string `query:"sort_by" json:"sort_by"`
	SortOrder string `query:"sort_order" json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

func (q *ListQuery) filter() query.ProductFilter {
	var f query.ProductFilter
	if q.Category != "" {
		f.CategoryID = &q.Category
	}
	if strings.TrimSpace(q.Search) != "" {
		f.Search = &q.Search
	}
	if d, err := decimal.NewFromString(q.MinPrice); err == nil {
		f.MinPrice = &d
	}
	if d, err := decimal.NewFromString(q.MaxPrice); err == nil {
		f.MaxPrice = &d
	}
	if b, err := strconv.ParseBool(q.Featured); err == nil {
		f.IsFeatured = &b
	}
	if q.Status != "" {
		status := models.ProductStatus(q.Status)
		f.Status = &status
	}
	return f
}

// HandleList returns one page of products. An empty page is a normal result.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	q := ListQuery{Page: 1, Size: query.DefaultPageSize}
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validation.Details(err),
		})
	}

	result, err := h.productService.ListProducts(c.UserContext(), q.filter(),
		query.Sort{Field: q.SortBy, Direction: q.SortOrder},
		query.Page{Number: q.Page, Size: q.Size})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	items := make([]models.ProductResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, models.NewProductResponse(&result.Items[i]))
	}
	return c.JSON(models.ProductListResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Size:  result.Size,
		Pages: result.Pages,
	})
}

// HandleGet returns a single product.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(models.NewProductResponse(product))
}

// HandleCreate creates a product owned by the authenticated user.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	h.logDroppedFields(c, "create")

	var req models.ProductCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	var ownerID *string
	if id, ok := middleware.UserID(c); ok {
		ownerID = &id
	}

	product, err := h.productService.Create(c.UserContext(), &req, ownerID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewProductResponse(product))
}

// HandleUpdate applies a partial update.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	h.logDroppedFields(c, "update")

	var req models.ProductUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.productService.Update(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(models.NewProductResponse(product))
}

// HandleDelete soft-deletes a product, or removes it with ?permanent=true.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	permanent := c.QueryBool("permanent", false)

	deleted, err := h.productService.Delete(c.UserContext(), c.Params("id"), permanent)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) lookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrProductNotFound) {
		return respondError(c, h.logger, apperrors.NotFound("Product not found"))
	}
	return respondError(c, h.logger, err)
}

// logDroppedFields records payload keys outside the product allow-list. They are ignored.
func (h *ProductHandler) logDroppedFields(c *fiber.Ctx, op string) {
	if unknown := models.UnknownProductFields(c.Body()); len(unknown) > 0 {
		h.logger.Info("ignoring unknown product fields",
			zap.String("op", op),
			zap.String("product_id", c.Params("id")),
			zap.Strings("fields", unknown))
	}
}
