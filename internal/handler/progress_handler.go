package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalworks/audit-api/internal/service"
	"github.com/evalworks/audit-api/internal/utils"
)

// ProgressHandler exposes per-process scoring progress summaries.
type ProgressHandler struct {
	progress service.ProgressService
	logger   zerolog.Logger
}

// NewProgressHandler builds a progress handler instance.
func NewProgressHandler(progress service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress: progress,
		logger:   logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:code/progress", h.progressByProcess)
}

func (h *ProgressHandler) progressByProcess(c *fiber.Ctx) error {
	summary, err := h.progress.ProcessProgress(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrProcessNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "process not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "progress retrieved", summary)
}
