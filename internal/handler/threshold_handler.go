package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/service"
	"github.com/evalworks/audit-api/internal/utils"
)

// ThresholdHandler exposes a read-only classification probe so operators can
// check rule coverage without touching any session.
type ThresholdHandler struct {
	threshold service.ThresholdService
	logger    zerolog.Logger
}

// NewThresholdHandler builds a threshold handler instance.
func NewThresholdHandler(threshold service.ThresholdService, logger zerolog.Logger) *ThresholdHandler {
	return &ThresholdHandler{
		threshold: threshold,
		logger:    logger.With().Str("component", "threshold_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ThresholdHandler) Register(router fiber.Router) {
	router.Get("/classify", h.classify)
}

func (h *ThresholdHandler) classify(c *fiber.Ctx) error {
	auditType := c.Query("audit_type")
	if auditType == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "audit_type is required")
	}
	if !models.KnownAuditType(auditType) {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown audit_type")
	}

	score, ok, err := parseQueryFloat(c, "score")
	if err != nil || !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "score is required")
	}

	decision, err := h.threshold.Classify(c.UserContext(), auditType, score)
	if err != nil {
		if errors.Is(err, service.ErrNoMatchingThreshold) {
			requestLogger(h.logger, c).Error().Err(err).Msg("threshold configuration gap")
			return utils.SendError(c, fiber.StatusInternalServerError, "threshold configuration does not cover score")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "score classified", decision)
}
