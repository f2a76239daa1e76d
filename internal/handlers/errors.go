package handlers

import (
	"errors"

	"catalog/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError renders err with the status of its apperrors kind.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := apperrors.HTTPStatus(err)
	body := fiber.Map{"message": err.Error()}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body["message"] = appErr.Message
		body["error"] = string(appErr.Kind)
		if len(appErr.Details) > 0 {
			body["errors"] = appErr.Details
		}
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler renders errors that escape route handlers as JSON.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}
		return respondError(c, logger, err)
	}
}
