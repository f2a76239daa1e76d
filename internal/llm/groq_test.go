package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/internal/agent"
	"catalog/internal/apperrors"
	"catalog/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGroq(t *testing.T, handler http.HandlerFunc) *llm.GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llm.NewGroqClient(llm.GroqConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestGroqClient_Generate(t *testing.T) {
	client := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "find lamps", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[{"message":{"role":"assistant","content":"  Here are lamps. "},"finish_reason":"stop"}],"usage":{"total_tokens":33}}`))
	})

	gen, err := client.Generate(context.Background(), agent.Prompt{Text: "find lamps", System: "be brief", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Here are lamps.", gen.Text)
	assert.Equal(t, 33, gen.TokensUsed)
	assert.Equal(t, "test-model", gen.Model)
	assert.Equal(t, 0.8, gen.Confidence)
	assert.Equal(t, "groq", client.Name())
}

func TestGroqClient_ErrorsAreExternal(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), agent.Prompt{Text: "hi"})
			assert.ErrorIs(t, err, apperrors.ErrExternalService)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestGroqClient_RateLimited(t *testing.T) {
	calls := 0
	client := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := client.Generate(context.Background(), agent.Prompt{Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrRateLimit)
	assert.NotErrorIs(t, err, apperrors.ErrExternalService)
	assert.Equal(t, 1, calls)
}

func TestGroqClient_MissingKey(t *testing.T) {
	client := llm.NewGroqClient(llm.GroqConfig{}, zap.NewNop())

	_, err := client.Generate(context.Background(), agent.Prompt{Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestGroqClient_HealthCheck(t *testing.T) {
	healthy := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	unauthorized := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.ErrorIs(t, unauthorized.HealthCheck(context.Background()), apperrors.ErrExternalService)
}

func TestGroqClient_ContextDeadline(t *testing.T) {
	client := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, agent.Prompt{Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
