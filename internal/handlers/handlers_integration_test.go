package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/agent"
	"catalog/internal/database"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct{}

func (fakeGenerator) Generate(context.Context, agent.Prompt) (*agent.Generation, error) {
	return &agent.Generation{Text: "Here is what I found.", Confidence: 0.8, TokensUsed: 12}, nil
}

func (fakeGenerator) Name() string { return "fake" }

type testEnv struct {
	app        *fiber.App
	categoryID string
	adminToken string
	userToken  string
}

// setupApp builds the full application over a private in-memory sqlite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.OpenTest()
	require.NoError(t, err)

	category, err := repositories.NewGORMCategoryRepository(db).FirstOrCreate(ctx, "Electronics", "electronics")
	require.NoError(t, err)

	productService := services.NewProductService(repositories.NewGORMProductRepository(db), logger)
	authService := services.NewAuthService(repositories.NewGORMUserRepository(db), "test_jwt_secret", time.Hour, logger)

	app := server.New(server.Deps{
		Products: productService,
		Auth:     authService,
		Agent:    agent.NewNavigationAgent(fakeGenerator{}, productService, logger),
		Logger:   logger,
	})

	env := &testEnv{app: app, categoryID: category.ID}
	env.adminToken = registerAndLogin(t, authService, "admin", models.RoleAdmin)
	env.userToken = registerAndLogin(t, authService, "shopper", models.RoleCustomer)
	return env
}

func registerAndLogin(t *testing.T, authService *services.AuthService, username, role string) string {
	t.Helper()
	ctx := context.Background()
	user := models.User{Username: username, Email: username + "@example.com", Password: "password123"}
	require.NoError(t, authService.RegisterUser(ctx, &user, role))
	token, err := authService.LoginUser(ctx, username, "password123")
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (e *testEnv) productPayload(name, slug, price string) map[string]any {
	return map[string]any{
		"name":        name,
		"slug":        slug,
		"category_id": e.categoryID,
		"price":       price,
		"status":      "ACTIVE",
	}
}

func (e *testEnv) createProduct(t *testing.T, name, slug, price string) models.ProductResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/products", e.adminToken, e.productPayload(name, slug, price))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created models.ProductResponse
	require.NoError(t, json.Unmarshal(body, &created))
	return created
}

func TestProductAPI_Create(t *testing.T) {
	env := setupApp(t)

	created := env.createProduct(t, "Smart Phone", "smart-phone", "499.99")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "499.99", created.Price.StringFixed(2))
	assert.Equal(t, "USD", created.Currency)
	assert.True(t, created.IsVisible)
	assert.False(t, created.IsInStock)
	require.NotNil(t, created.CreatedBy)

	t.Run("duplicate slug", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/v1/products", env.adminToken,
			env.productPayload("Another Phone", "smart-phone", "10"))
		assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	})

	t.Run("invalid payload", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/v1/products", env.adminToken,
			env.productPayload("X", "x", "-1"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errBody map[string]any
		require.NoError(t, json.Unmarshal(body, &errBody))
		details, ok := errBody["errors"].(map[string]any)
		require.True(t, ok, string(body))
		assert.Contains(t, details, "price")
		assert.Contains(t, details, "name")
	})

	t.Run("unknown category", func(t *testing.T) {
		payload := env.productPayload("Ghost Phone", "ghost-phone", "10")
		payload["category_id"] = "6f1c2b9e-8d4a-4c3b-9a7e-2f5d1e0c3b4a"
		resp, _ := env.do(t, http.MethodPost, "/api/v1/products", env.adminToken, payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProductAPI_WritesRequireAdmin(t *testing.T) {
	env := setupApp(t)
	payload := env.productPayload("Smart Phone", "smart-phone", "499.99")

	resp, _ := env.do(t, http.MethodPost, "/api/v1/products", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/products", "not-a-token", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/products", env.userToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductAPI_GetAndList(t *testing.T) {
	env := setupApp(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty models.ProductListResponse
	require.NoError(t, json.Unmarshal(body, &empty))
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.Total)
	assert.JSONEq(t, `[]`, string(rawField(t, body, "items")))

	phone := env.createProduct(t, "Smart Phone", "smart-phone", "499.99")
	env.createProduct(t, "Phone Case", "phone-case", "19.99")
	env.createProduct(t, "Laptop", "laptop", "1200")

	resp, body = env.do(t, http.MethodGet, "/api/v1/products/"+phone.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.ProductResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "smart-phone", got.Slug)
	require.NotNil(t, got.Category)
	assert.Equal(t, "electronics", got.Category.Slug)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/products/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/v1/products?search=phone&sort_by=price&sort_order=asc&size=1&page=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var page models.ProductListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 1, page.Size)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "smart-phone", page.Items[0].Slug)

	resp, body = env.do(t, http.MethodGet, "/api/v1/products?min_price=100&max_price=600", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "smart-phone", page.Items[0].Slug)

	resp, body = env.do(t, http.MethodGet, "/api/v1/products?page=99", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.Total)

	resp, body = env.do(t, http.MethodGet, "/api/v1/products?page=10000000&size=100", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.Total)

	for _, bad := range []string{"?page=0", "?page=4611686018427387905&size=2", "?size=101", "?category=not-a-uuid", "?sort_order=sideways"} {
		resp, _ = env.do(t, http.MethodGet, "/api/v1/products"+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestProductAPI_Update(t *testing.T) {
	env := setupApp(t)
	phone := env.createProduct(t, "Smart Phone", "smart-phone", "499.99")

	resp, body := env.do(t, http.MethodPut, "/api/v1/products/"+phone.ID, env.adminToken, map[string]any{
		"price":      "449.00",
		"quantity":   3,
		"created_by": "someone-else",
		"is_deleted": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated models.ProductResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "449.00", updated.Price.StringFixed(2))
	assert.Equal(t, 3, updated.Quantity)
	assert.True(t, updated.IsLowStock)
	assert.Equal(t, "Smart Phone", updated.Name)
	assert.Equal(t, phone.CreatedBy, updated.CreatedBy)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/products/"+phone.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/v1/products/"+phone.ID, env.adminToken, map[string]any{"price": "0"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/v1/products/missing", env.adminToken, map[string]any{"name": "Renamed"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductAPI_Delete(t *testing.T) {
	env := setupApp(t)
	soft := env.createProduct(t, "Smart Phone", "smart-phone", "499.99")
	hard := env.createProduct(t, "Laptop", "laptop", "1200")

	resp, _ := env.do(t, http.MethodDelete, "/api/v1/products/"+soft.ID, env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/products/"+soft.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/products/"+soft.ID, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/products/"+hard.ID+"?permanent=true", env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ProductListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)

	// The slug of a soft-deleted product stays reserved.
	resp, _ = env.do(t, http.MethodPost, "/api/v1/products", env.adminToken, env.productPayload("Smart Phone", "smart-phone", "10"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthAPI_RegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "newbie",
		"email":    "newbie@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "secret123")

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "newbie",
		"email":    "other@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "newbie",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, rawField(t, body, "token"))

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "newbie",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAgentAPI_Navigation(t *testing.T) {
	env := setupApp(t)
	env.createProduct(t, "Smart Phone", "smart-phone", "499.99")

	resp, body := env.do(t, http.MethodPost, "/api/v1/agent/navigation", "", map[string]any{
		"message": "phone",
		"intent":  "navigation_search",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var answer agent.Response
	require.NoError(t, json.Unmarshal(body, &answer))
	assert.Empty(t, answer.Error)
	assert.NotEmpty(t, answer.ConversationID)
	assert.Contains(t, answer.Message, "Found 1 matching products:")
	assert.Contains(t, answer.Message, "1. Smart Phone - 499.99 USD")
	assert.Equal(t, "fake+database", answer.ModelUsed)

	resp, body = env.do(t, http.MethodPost, "/api/v1/agent/navigation", "", map[string]any{
		"message": "   ",
		"intent":  "general_chat",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &answer))
	assert.NotEmpty(t, answer.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/navigation", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/v1/agent/navigation/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestHealthEndpoint(t *testing.T) {
	env := setupApp(t)

	resp, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"healthy"`, string(rawField(t, body, "status")))
}

func rawField(t *testing.T, body []byte, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	return fields[key]
}
