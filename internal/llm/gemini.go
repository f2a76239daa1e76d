package llm

import (
	"context"
	"fmt"
	"strings"

	"catalog/internal/agent"
	"catalog/internal/apperrors"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int32
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
	logger    *zap.Logger
}

// NewGeminiClient creates a GeminiClient.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.Configuration("GEMINI_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Name implements agent.TextGenerator.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Generate implements agent.TextGenerator.
func (c *GeminiClient) Generate(ctx context.Context, prompt agent.Prompt) (*agent.Generation, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: c.maxTokens,
		Temperature:     genai.Ptr[float32](0.7),
	}
	if strings.TrimSpace(prompt.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.Text), config)
	if err != nil {
		return nil, apperrors.ExternalService("gemini request failed", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, apperrors.ExternalService("gemini returned no completion", nil)
	}

	gen := &agent.Generation{
		Text:       text,
		Confidence: 0.8,
		Model:      c.model,
	}
	if resp.UsageMetadata != nil {
		gen.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	if len(resp.Candidates) > 0 {
		gen.Confidence = confidenceFor(string(resp.Candidates[0].FinishReason))
	}
	c.logger.Debug("gemini completion", zap.String("model", c.model), zap.Int("tokens", gen.TokensUsed))
	return gen, nil
}

// HealthCheck fetches the configured model's metadata.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return apperrors.ExternalService("gemini health check failed", err)
	}
	return nil
}
