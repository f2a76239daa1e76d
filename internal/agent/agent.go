package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"catalog/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DetailsConfidence is reported when a details answer is grounded on a stored product.
const DetailsConfidence = 0.9

// maxListedProducts caps the product lines appended to a search answer.
const maxListedProducts = 3

var productIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// NavigationAgent answers catalog navigation questions. It holds no per-request state.
type NavigationAgent struct {
	generator TextGenerator
	products  ProductFinder
	logger    *zap.Logger
	now       func() time.Time
}

// NewNavigationAgent creates a NavigationAgent.
func NewNavigationAgent(generator TextGenerator, products ProductFinder, logger *zap.Logger) *NavigationAgent {
	return &NavigationAgent{
		generator: generator,
		products:  products,
		logger:    logger,
		now:       time.Now,
	}
}

// Process answers req. It never returns an error: every failure, including a panic in a
// branch, becomes a Response with Error set.
func (a *NavigationAgent) Process(ctx context.Context, req Request) (resp Response) {
	start := a.now()
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("navigation agent panic",
				zap.String("conversation_id", conversationID),
				zap.Any("panic", r))
			resp = errorResponse(conversationID, req.Intent, fmt.Sprintf("navigation query failed: %v", r))
		}
		resp.ProcessingTime = a.now().Sub(start).Seconds()
	}()

	if err := validateRequest(req); err != nil {
		return errorResponse(conversationID, req.Intent, "invalid request: "+err.Error())
	}

	switch req.Intent {
	case IntentSearch:
		return a.handleSearch(ctx, req, conversationID)
	case IntentDetails:
		return a.handleDetails(ctx, req, conversationID)
	default:
		return a.handleGeneral(ctx, req, conversationID)
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message must not be empty")
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}
	return nil
}

func (a *NavigationAgent) handleSearch(ctx context.Context, req Request, conversationID string) Response {
	gen, err := a.generate(ctx, req, conversationID, searchPrompt(req.Message))
	if err != nil {
		return a.failure(conversationID, req.Intent, "navigation search failed", err)
	}

	products := a.searchProducts(ctx, req.Message)

	var b strings.Builder
	b.WriteString(gen.Text)
	b.WriteString("\n\n")
	if len(products) > 0 {
		fmt.Fprintf(&b, "Found %d matching products:\n", len(products))
		for i, p := range products {
			if i == maxListedProducts {
				break
			}
			fmt.Fprintf(&b, "%d. %s - %s %s\n", i+1, p.Name, p.Price.StringFixed(2), p.Currency)
		}
	} else {
		b.WriteString("No products found matching your search criteria.")
	}

	return Response{
		Message:        b.String(),
		Intent:         req.Intent,
		ConversationID: conversationID,
		Confidence:     gen.Confidence,
		ModelUsed:      a.generator.Name() + "+database",
		Metadata: map[string]any{
			"products_found": len(products),
			"search_query":   req.Message,
			"tokens_used":    gen.TokensUsed,
		},
	}
}

// searchProducts degrades to no results when the catalog is unavailable.
func (a *NavigationAgent) searchProducts(ctx context.Context, term string) []models.Product {
	products, err := a.products.SearchProducts(ctx, term)
	if err != nil {
		a.logger.Warn("catalog search failed", zap.String("query", term), zap.Error(err))
		return nil
	}
	return products
}

func (a *NavigationAgent) handleDetails(ctx context.Context, req Request, conversationID string) Response {
	if id := extractProductID(req.Message); id != "" {
		product, err := a.products.GetProductByID(ctx, id)
		if err == nil {
			return a.productSummary(ctx, req, conversationID, product)
		}
		a.logger.Debug("details lookup missed", zap.String("product_id", id), zap.Error(err))
	}

	gen, err := a.generate(ctx, req, conversationID, detailsPrompt(req.Message))
	if err != nil {
		return a.failure(conversationID, req.Intent, "navigation details failed", err)
	}
	return Response{
		Message:        gen.Text,
		Intent:         req.Intent,
		ConversationID: conversationID,
		Confidence:     gen.Confidence,
		ModelUsed:      a.generator.Name(),
		Metadata:       map[string]any{"tokens_used": gen.TokensUsed},
	}
}

func (a *NavigationAgent) productSummary(ctx context.Context, req Request, conversationID string, p *models.Product) Response {
	gen, err := a.generate(ctx, req, conversationID, summaryPrompt(p))
	if err != nil {
		return a.failure(conversationID, req.Intent, "failed to generate product details", err)
	}
	return Response{
		Message:        gen.Text,
		Intent:         req.Intent,
		ConversationID: conversationID,
		Confidence:     DetailsConfidence,
		ModelUsed:      a.generator.Name() + "+database",
		Metadata: map[string]any{
			"product_id":    p.ID,
			"product_name":  p.Name,
			"product_price": p.Price.StringFixed(2),
			"tokens_used":   gen.TokensUsed,
		},
	}
}

func (a *NavigationAgent) handleGeneral(ctx context.Context, req Request, conversationID string) Response {
	gen, err := a.generate(ctx, req, conversationID, generalPrompt(req.Message))
	if err != nil {
		return a.failure(conversationID, req.Intent, "general navigation query failed", err)
	}
	return Response{
		Message:        gen.Text,
		Intent:         req.Intent,
		ConversationID: conversationID,
		Confidence:     gen.Confidence,
		ModelUsed:      a.generator.Name(),
		Metadata:       map[string]any{"tokens_used": gen.TokensUsed},
	}
}

func (a *NavigationAgent) generate(ctx context.Context, req Request, conversationID, text string) (*Generation, error) {
	gen, err := a.generator.Generate(ctx, Prompt{
		Text:           text,
		System:         systemPrompt,
		ConversationID: conversationID,
		UserID:         req.UserID,
	})
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, errors.New("generator returned no output")
	}
	return gen, nil
}

func (a *NavigationAgent) failure(conversationID string, intent Intent, what string, err error) Response {
	a.logger.Error(what, zap.String("conversation_id", conversationID), zap.Error(err))
	return errorResponse(conversationID, intent, what+": "+err.Error())
}

func errorResponse(conversationID string, intent Intent, reason string) Response {
	return Response{
		Message:        reason,
		Intent:         intent,
		ConversationID: conversationID,
		Error:          reason,
	}
}

// extractProductID returns the first lowercase 8-4-4-4-12 hex id in message, or "".
func extractProductID(message string) string {
	return productIDPattern.FindString(strings.ToLower(message))
}

// Component health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthReport describes the agent's collaborators.
type HealthReport struct {
	Status          string    `json:"status"`
	GeneratorStatus string    `json:"generator_status"`
	DatabaseStatus  string    `json:"database_status"`
	LastCheck       time.Time `json:"last_check"`
	Errors          []string  `json:"errors,omitempty"`
}

// Healthy reports whether every collaborator is reachable.
func (h HealthReport) Healthy() bool {
	return h.Status == StatusHealthy
}

// Health checks the generator, when it supports it, and the product store.
func (a *NavigationAgent) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:          StatusHealthy,
		GeneratorStatus: StatusHealthy,
		DatabaseStatus:  StatusHealthy,
		LastCheck:       a.now().UTC(),
	}
	if hc, ok := a.generator.(HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			report.GeneratorStatus = StatusUnhealthy
			report.Errors = append(report.Errors, "generator: "+err.Error())
		}
	}
	if err := a.products.Ping(ctx); err != nil {
		report.DatabaseStatus = StatusUnhealthy
		report.Errors = append(report.Errors, "database: "+err.Error())
	}
	if report.GeneratorStatus != StatusHealthy || report.DatabaseStatus != StatusHealthy {
		report.Status = StatusUnhealthy
	}
	return report
}
