package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticValidator map[string]*services.Claims

func (v staticValidator) ValidateToken(token string) (*services.Claims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newApp() *fiber.App {
	validator := staticValidator{
		"admin-token":    {UserID: "u1", Username: "root", Role: "admin"},
		"customer-token": {UserID: "u2", Username: "bob", Role: "customer"},
	}
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(validator, zap.NewNop()), func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		return c.SendString(id)
	})
	app.Get("/admin", middleware.AuthRequired(validator, zap.NewNop()), middleware.AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/unguarded-admin", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalRole, "admin")
		return c.Next()
	}, middleware.AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newApp()
	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/me", "Bearer customer-token", http.StatusOK},
		{"customer on admin route", "/admin", "Bearer customer-token", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer admin-token", http.StatusNoContent},
		{"role without validated claims", "/unguarded-admin", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
