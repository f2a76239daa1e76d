package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"catalog/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("create product: %w", apperrors.Validation("invalid payload", map[string]any{"price": "must be positive"}))

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.False(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	var appErr *apperrors.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be positive", appErr.Details["price"])
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperrors.Database("failed to load product", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load product: connection refused", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.Validation("bad", nil), http.StatusBadRequest},
		{apperrors.NotFound("missing"), http.StatusNotFound},
		{apperrors.Conflict("dup", nil), http.StatusConflict},
		{apperrors.Authentication("no token"), http.StatusUnauthorized},
		{apperrors.Authorization("not admin"), http.StatusForbidden},
		{apperrors.RateLimit("slow down", nil), http.StatusTooManyRequests},
		{apperrors.ExternalService("llm down", nil), http.StatusBadGateway},
		{apperrors.Database("db down", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, apperrors.HTTPStatus(tt.err), tt.err.Error())
	}
}
