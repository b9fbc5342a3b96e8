package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/dto"
	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/repository"
)

// SessionService maintains the audit session ledger. Ledger status follows
// the same monotonic progression as the hierarchy; entries are never deleted.
type SessionService interface {
	Assign(ctx context.Context, payload dto.SessionCreateRequest) (dto.SessionResponse, error)
	Start(ctx context.Context, code string) (dto.SessionResponse, error)
	Complete(ctx context.Context, code string) (dto.SessionResponse, error)
	Get(ctx context.Context, code string) (dto.SessionResponse, error)
	List(ctx context.Context, req dto.SessionListRequest) (dto.SessionListResponse, error)
}

type sessionService struct {
	sessions  repository.SessionRepository
	hierarchy repository.HierarchyRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSessionService constructs the session ledger service.
func NewSessionService(sessions repository.SessionRepository, hierarchy repository.HierarchyRepository, validate *validator.Validate, logger zerolog.Logger) SessionService {
	return &sessionService{
		sessions:  sessions,
		hierarchy: hierarchy,
		validator: validate,
		logger:    logger.With().Str("component", "session_service").Logger(),
		now:       time.Now,
	}
}

func (s *sessionService) Assign(ctx context.Context, payload dto.SessionCreateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	process, err := s.hierarchy.GetProcess(ctx, payload.ProcessCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrProcessNotFound
		}
		return dto.SessionResponse{}, err
	}

	if err := s.hierarchy.AssignAuditor(ctx, process.Code, payload.AuditorRef); err != nil {
		return dto.SessionResponse{}, err
	}

	assignedAt := s.now()
	session := models.AuditSession{
		Code:        uuid.NewString(),
		ProcessCode: process.Code,
		AuditType:   process.AuditType,
		Status:      models.StatusPending,
		MaxScore:    models.ItemScoreMax,
		AssignedAt:  &assignedAt,
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().
		Str("session_code", session.Code).
		Str("process_code", process.Code).
		Str("auditor_ref", payload.AuditorRef).
		Msg("session assigned")

	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) Start(ctx context.Context, code string) (dto.SessionResponse, error) {
	var response dto.SessionResponse
	err := s.sessions.Transaction(ctx, func(tx repository.SessionRepository) error {
		session, err := tx.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if models.StatusAdvances(session.Status, models.StatusAuditing) {
			session.Status = models.StatusAuditing
			startedAt := s.now()
			session.StartedAt = &startedAt
			if err := tx.Update(ctx, &session); err != nil {
				return err
			}
		}

		response = dto.NewSessionResponse(session)
		return nil
	})
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return response, nil
}

// Complete aggregates the process's checklist scores into the ledger total
// and closes out the session and its process. Process completion is decided
// here rather than in CompleteStep because a process may contain steps that
// are intentionally skipped.
func (s *sessionService) Complete(ctx context.Context, code string) (dto.SessionResponse, error) {
	var response dto.SessionResponse
	err := s.sessions.Transaction(ctx, func(tx repository.SessionRepository) error {
		session, err := tx.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		items, err := s.hierarchy.ListItemsByProcess(ctx, session.ProcessCode)
		if err != nil {
			return err
		}

		actual := make([]float64, 0, len(items))
		max := make([]float64, 0, len(items))
		for _, item := range items {
			if item.Score != nil {
				actual = append(actual, *item.Score)
				max = append(max, item.MaxScore)
			}
		}

		total := AggregateScore(actual, max)
		session.TotalScore = &total
		if models.StatusAdvances(session.Status, models.StatusAudited) {
			session.Status = models.StatusAudited
		}
		completedAt := s.now()
		session.CompletedAt = &completedAt
		if err := tx.Update(ctx, &session); err != nil {
			return err
		}

		if err := s.hierarchy.MarkProcessAudited(ctx, session.ProcessCode); err != nil {
			return err
		}

		response = dto.NewSessionResponse(session)
		return nil
	})
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().
		Str("session_code", code).
		Float64("total_score", *response.TotalScore).
		Msg("session completed")

	return response, nil
}

func (s *sessionService) Get(ctx context.Context, code string) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, req dto.SessionListRequest) (dto.SessionListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SessionListResponse{}, err
	}

	filter := repository.SessionFilter{
		ProcessCode: req.ProcessCode,
		AuditType:   req.AuditType,
		Status:      req.Status,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return dto.SessionListResponse{}, err
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.SessionListResponse{
		Items:      dto.NewSessionResponseSlice(sessions),
		Pagination: pagination,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
