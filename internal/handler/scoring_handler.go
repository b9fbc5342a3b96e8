package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalworks/audit-api/internal/dto"
	"github.com/evalworks/audit-api/internal/service"
	"github.com/evalworks/audit-api/internal/utils"
)

// ScoringHandler exposes the batch item scoring endpoint.
type ScoringHandler struct {
	cascade service.CascadeService
	logger  zerolog.Logger
}

// NewScoringHandler builds a scoring handler instance.
func NewScoringHandler(cascade service.CascadeService, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		cascade: cascade,
		logger:  logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ScoringHandler) Register(router fiber.Router) {
	router.Post("/scores", h.applyScores)
}

func (h *ScoringHandler) applyScores(c *fiber.Ctx) error {
	var payload dto.ApplyItemScoresRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.ActorRef == "" {
		payload.ActorRef = actorRef(c)
	}

	result, err := h.cascade.ApplyItemScores(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "item scores applied", result)
}

func (h *ScoringHandler) handleError(c *fiber.Ctx, err error) error {
	var notFound *service.ItemsNotFoundError
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &notFound):
		return utils.SendErrorWithData(c, fiber.StatusNotFound, err.Error(), fiber.Map{
			"missing_codes": notFound.Codes,
		})
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
