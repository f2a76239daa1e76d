// Package agent implements the catalog navigation assistant. It classifies a message by
// intent, optionally looks products up, and delegates wording to a TextGenerator.
package agent

import (
	"context"

	"catalog/internal/models"
)

// Intent selects the branch that handles a request.
type Intent string

const (
	IntentSearch  Intent = "navigation_search"
	IntentDetails Intent = "navigation_details"
	IntentGeneral Intent = "general_chat"
)

// MaxMessageLength is the longest message the agent accepts, in characters.
const MaxMessageLength = 4000

// Request is one user turn.
type Request struct {
	Message        string `json:"message"`
	Intent         Intent `json:"intent"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Response is the agent's answer. Error is set when the turn failed; Message then holds
// the reason.
type Response struct {
	Message        string         `json:"message"`
	Intent         Intent         `json:"intent"`
	ConversationID string         `json:"conversation_id"`
	Confidence     float64        `json:"confidence"`
	ProcessingTime float64        `json:"processing_time"`
	ModelUsed      string         `json:"model_used,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Prompt is the input of a text generation call.
type Prompt struct {
	Text           string
	System         string
	ConversationID string
	UserID         string
}

// Generation is the output of a text generation call.
type Generation struct {
	Text       string
	Confidence float64
	TokensUsed int
	Model      string
}

// TextGenerator turns a prompt into text, typically through a hosted language model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (*Generation, error)
	// Name identifies the generator in responses, e.g. "groq".
	Name() string
}

// HealthChecker is implemented by generators that can report reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProductFinder is the catalog surface the agent reads from.
type ProductFinder interface {
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	Ping(ctx context.Context) error
}
