package handlers

import (
	"catalog/internal/agent"
	"catalog/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AgentHandler exposes the navigation agent.
type AgentHandler struct {
	agent  *agent.NavigationAgent
	logger *zap.Logger
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(a *agent.NavigationAgent, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{agent: a, logger: logger}
}

// RegisterRoutes registers the agent routes.
func (h *AgentHandler) RegisterRoutes(router fiber.Router) {
	agentRoutes := router.Group("/agent")
	agentRoutes.Post("/navigation", h.HandleNavigation)
	agentRoutes.Get("/navigation/health", h.HandleHealth)
}

// HandleNavigation answers one message. Agent failures are reported in the body with 200.
func (h *AgentHandler) HandleNavigation(c *fiber.Ctx) error {
	var req agent.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if id, ok := middleware.UserID(c); ok && req.UserID == "" {
		req.UserID = id
	}

	resp := h.agent.Process(c.UserContext(), req)
	if resp.Error != "" {
		h.logger.Info("navigation request failed",
			zap.String("conversation_id", resp.ConversationID),
			zap.String("intent", string(resp.Intent)),
			zap.String("error", resp.Error))
	}
	return c.JSON(resp)
}

// HandleHealth reports the agent's collaborators.
func (h *AgentHandler) HandleHealth(c *fiber.Ctx) error {
	report := h.agent.Health(c.UserContext())
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
