// Package llm provides agent.TextGenerator implementations backed by hosted models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog/internal/agent"
	"catalog/internal/apperrors"

	"go.uber.org/zap"
)

// GroqConfig configures a GroqClient.
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultGroqConfig returns the defaults used when fields are left empty.
func DefaultGroqConfig(apiKey string) GroqConfig {
	return GroqConfig{
		APIKey:      apiKey,
		BaseURL:     "https://api.groq.com/openai/v1",
		Model:       "llama-3.1-8b-instant",
		Timeout:     30 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// GroqClient talks to Groq's OpenAI-compatible chat completions API. Calls are not retried.
type GroqClient struct {
	cfg        GroqConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGroqClient creates a GroqClient, filling unset fields from DefaultGroqConfig.
func NewGroqClient(cfg GroqConfig, logger *zap.Logger) *GroqClient {
	def := DefaultGroqConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	return &GroqClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	User        string        `json:"user,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Name implements agent.TextGenerator.
func (c *GroqClient) Name() string {
	return "groq"
}

// Generate implements agent.TextGenerator.
func (c *GroqClient) Generate(ctx context.Context, prompt agent.Prompt) (*agent.Generation, error) {
	if c.cfg.APIKey == "" {
		return nil, apperrors.ExternalService("groq API key not configured", nil)
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(prompt.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.Text})

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		User:        prompt.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	body, status, err := c.do(ctx, http.MethodPost, "/chat/completions", payload)
	if err != nil {
		return nil, apperrors.ExternalService("groq request failed", err)
	}
	if status == http.StatusTooManyRequests {
		return nil, apperrors.RateLimit("groq rate limit exceeded", fmt.Errorf("%s", truncate(body, 512)))
	}
	if status != http.StatusOK {
		return nil, apperrors.ExternalService(fmt.Sprintf("groq API request failed with status %d", status), fmt.Errorf("%s", truncate(body, 512)))
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.ExternalService("groq response could not be parsed", err)
	}
	if resp.Error != nil {
		return nil, apperrors.ExternalService("groq API error", fmt.Errorf("%s", resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.ExternalService("groq returned no completion", nil)
	}

	choice := resp.Choices[0]
	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}
	c.logger.Debug("groq completion",
		zap.String("model", model),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &agent.Generation{
		Text:       strings.TrimSpace(choice.Message.Content),
		Confidence: confidenceFor(choice.FinishReason),
		TokensUsed: resp.Usage.TotalTokens,
		Model:      model,
	}, nil
}

// HealthCheck lists the available models, which only succeeds with a valid key.
func (c *GroqClient) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return apperrors.ExternalService("groq API key not configured", nil)
	}
	_, status, err := c.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return apperrors.ExternalService("groq health check failed", err)
	}
	if status != http.StatusOK {
		return apperrors.ExternalService(fmt.Sprintf("groq health check returned status %d", status), nil)
	}
	return nil
}

func (c *GroqClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// confidenceFor maps a finish reason to a coarse confidence score.
func confidenceFor(finishReason string) float64 {
	switch strings.ToLower(finishReason) {
	case "stop", "end_turn", "":
		return 0.8
	case "length", "max_tokens":
		return 0.6
	default:
		return 0.5
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
