package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalworks/audit-api/internal/service"
	"github.com/evalworks/audit-api/internal/utils"
)

// StepHandler exposes the cascade engine's step lifecycle endpoints.
type StepHandler struct {
	cascade service.CascadeService
	logger  zerolog.Logger
}

// NewStepHandler builds a step handler instance.
func NewStepHandler(cascade service.CascadeService, logger zerolog.Logger) *StepHandler {
	return &StepHandler{
		cascade: cascade,
		logger:  logger.With().Str("component", "step_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StepHandler) Register(router fiber.Router) {
	router.Post("/:code/start", h.start)
	router.Post("/:code/complete", h.complete)
}

func (h *StepHandler) start(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "step code is required")
	}

	snapshot, err := h.cascade.StartStep(c.UserContext(), code, actorRef(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "step started", snapshot)
}

func (h *StepHandler) complete(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "step code is required")
	}

	snapshot, err := h.cascade.CompleteStep(c.UserContext(), code, actorRef(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "step completed", snapshot)
}

func (h *StepHandler) handleError(c *fiber.Ctx, err error) error {
	var incomplete *service.IncompleteScoringError
	switch {
	case errors.Is(err, service.ErrStepNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "step not found")
	case errors.Is(err, service.ErrStepAlreadyStarted):
		return utils.SendError(c, fiber.StatusConflict, "step already started")
	case errors.Is(err, service.ErrStepNotStarted):
		return utils.SendError(c, fiber.StatusConflict, "step not started")
	case errors.As(err, &incomplete):
		return utils.SendErrorWithData(c, fiber.StatusUnprocessableEntity, err.Error(), fiber.Map{
			"remaining": incomplete.Remaining,
		})
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
