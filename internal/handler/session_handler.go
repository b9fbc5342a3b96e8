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

// SessionHandler exposes the audit session ledger endpoints.
type SessionHandler struct {
	sessions  service.SessionService
	threshold service.ThresholdService
	logger    zerolog.Logger
}

// NewSessionHandler builds a session handler instance.
func NewSessionHandler(sessions service.SessionService, threshold service.ThresholdService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		threshold: threshold,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:code", h.get)
	router.Post("/:code/start", h.start)
	router.Post("/:code/complete", h.complete)
	router.Post("/:code/evaluate", h.evaluate)
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.sessions.Assign(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session assigned", session)
}

func (h *SessionHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	req := dto.SessionListRequest{
		ProcessCode: c.Query("process_code"),
		AuditType:   c.Query("audit_type"),
		Status:      c.Query("status"),
		Page:        page,
		PageSize:    pageSize,
	}

	sessions, err := h.sessions.List(c.UserContext(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *SessionHandler) get(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *SessionHandler) start(c *fiber.Ctx) error {
	session, err := h.sessions.Start(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session started", session)
}

func (h *SessionHandler) complete(c *fiber.Ctx) error {
	session, err := h.sessions.Complete(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session completed", session)
}

func (h *SessionHandler) evaluate(c *fiber.Ctx) error {
	evaluation, err := h.threshold.EvaluateSession(c.UserContext(), c.Params("code"), actorRef(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session evaluated", evaluation)
}

func (h *SessionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrProcessNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "process not found")
	case errors.Is(err, service.ErrSessionAlreadyEvaluated):
		return utils.SendError(c, fiber.StatusConflict, "session already evaluated")
	case errors.Is(err, service.ErrSessionNotScored):
		return utils.SendError(c, fiber.StatusConflict, "session has no total score")
	case errors.Is(err, service.ErrNoMatchingThreshold):
		// Configuration defect in the rule data; retrying will not help.
		requestLogger(h.logger, c).Error().Err(err).Msg("threshold configuration gap")
		return utils.SendError(c, fiber.StatusInternalServerError, "threshold configuration does not cover score")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
