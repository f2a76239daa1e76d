package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/internal/agent"
	"catalog/internal/apperrors"
	"catalog/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := llm.NewGeminiClient(context.Background(), llm.GeminiConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Lamps are bright."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 4, "totalTokenCount": 9}
		}`))
	}))
	defer srv.Close()

	client, err := llm.NewGeminiClient(context.Background(), llm.GeminiConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	gen, err := client.Generate(context.Background(), agent.Prompt{Text: "tell me about lamps", System: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "Lamps are bright.", gen.Text)
	assert.Equal(t, 9, gen.TokensUsed)
	assert.Equal(t, 0.8, gen.Confidence)
	assert.Equal(t, "gemini", client.Name())
}

func TestGeminiClient_GenerateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": 500, "message": "internal", "status": "INTERNAL"}}`))
	}))
	defer srv.Close()

	client, err := llm.NewGeminiClient(context.Background(), llm.GeminiConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), agent.Prompt{Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
}
