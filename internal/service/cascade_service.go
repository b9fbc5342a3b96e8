package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/dto"
	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/observability"
	"github.com/evalworks/audit-api/internal/repository"
)

// CascadeService owns the Process/Step/Item status state machine. Statuses
// only move PENDING -> AUDITING -> AUDITED; writes that would move a status
// backwards are suppressed, never errors.
type CascadeService interface {
	StartStep(ctx context.Context, stepCode, actorRef string) (dto.StartStepResponse, error)
	CompleteStep(ctx context.Context, stepCode, actorRef string) (dto.CompleteStepResponse, error)
	ApplyItemScores(ctx context.Context, payload dto.ApplyItemScoresRequest) (dto.ApplyItemScoresResponse, error)
}

type cascadeService struct {
	hierarchy repository.HierarchyRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewCascadeService constructs the status cascade engine.
func NewCascadeService(hierarchy repository.HierarchyRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) CascadeService {
	return &cascadeService{
		hierarchy: hierarchy,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "cascade_service").Logger(),
		tracer:    otel.Tracer("github.com/evalworks/audit-api/internal/service/cascade"),
	}
}

func (s *cascadeService) StartStep(ctx context.Context, stepCode, actorRef string) (dto.StartStepResponse, error) {
	ctx, span := s.tracer.Start(ctx, "cascade.start_step",
		trace.WithAttributes(attribute.String("audit.step_code", stepCode)))
	defer span.End()

	var response dto.StartStepResponse
	err := s.hierarchy.Transaction(ctx, func(tx repository.HierarchyRepository) error {
		step, err := tx.GetStepForUpdate(ctx, stepCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStepNotFound
			}
			return err
		}

		if step.IsStarted() {
			return ErrStepAlreadyStarted
		}

		if err := tx.MarkItemsAuditingByStep(ctx, step.Code); err != nil {
			return err
		}

		if err := tx.SetStepLifecycle(ctx, step.Code, models.StatusAuditing, models.ProgressStarted); err != nil {
			return err
		}

		if err := tx.MarkProcessAuditing(ctx, step.ProcessCode); err != nil {
			return err
		}

		process, err := tx.GetProcess(ctx, step.ProcessCode)
		if err != nil {
			return err
		}

		step.Status = models.StatusAuditing
		step.Progress = models.ProgressStarted
		response = dto.StartStepResponse{
			Step:    dto.NewStepSnapshot(step),
			Process: dto.NewProcessSnapshot(process),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "start_step_failed")
		return dto.StartStepResponse{}, err
	}

	observability.CascadeOperations().WithLabelValues("start_step").Inc()
	s.logger.Info().Str("step_code", stepCode).Msg("step started")
	s.recordActivity(ctx, actorRef, "step.started", "step", stepCode, map[string]interface{}{
		"process_code": response.Process.Code,
	})

	return response, nil
}

func (s *cascadeService) CompleteStep(ctx context.Context, stepCode, actorRef string) (dto.CompleteStepResponse, error) {
	ctx, span := s.tracer.Start(ctx, "cascade.complete_step",
		trace.WithAttributes(attribute.String("audit.step_code", stepCode)))
	defer span.End()

	var response dto.CompleteStepResponse
	err := s.hierarchy.Transaction(ctx, func(tx repository.HierarchyRepository) error {
		step, err := tx.GetStepForUpdate(ctx, stepCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStepNotFound
			}
			return err
		}

		if !step.IsStarted() {
			return ErrStepNotStarted
		}

		remaining, err := tx.CountUnscoredItems(ctx, step.Code)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return &IncompleteScoringError{Remaining: remaining}
		}

		if err := tx.SetStepLifecycle(ctx, step.Code, models.StatusAudited, models.ProgressCompleted); err != nil {
			return err
		}

		if err := tx.MarkItemsAuditedByStep(ctx, step.Code); err != nil {
			return err
		}

		// Process status is left alone: a process may contain steps that are
		// intentionally skipped, so its completion is recorded by the session
		// ledger, not inferred from step completion.
		step.Status = models.StatusAudited
		step.Progress = models.ProgressCompleted
		response = dto.CompleteStepResponse{Step: dto.NewStepSnapshot(step)}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete_step_failed")
		return dto.CompleteStepResponse{}, err
	}

	observability.CascadeOperations().WithLabelValues("complete_step").Inc()
	s.logger.Info().Str("step_code", stepCode).Msg("step completed")
	s.recordActivity(ctx, actorRef, "step.completed", "step", stepCode, map[string]interface{}{
		"process_code": response.Step.ProcessCode,
	})

	return response, nil
}

func (s *cascadeService) ApplyItemScores(ctx context.Context, payload dto.ApplyItemScoresRequest) (dto.ApplyItemScoresResponse, error) {
	ctx, span := s.tracer.Start(ctx, "cascade.apply_item_scores",
		trace.WithAttributes(attribute.Int("audit.batch_size", len(payload.Items))))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ApplyItemScoresResponse{}, err
	}

	itemCodes := make([]string, 0, len(payload.Items))
	updates := make([]repository.ItemScoreUpdate, 0, len(payload.Items))
	for _, item := range payload.Items {
		update := repository.ItemScoreUpdate{Code: item.ItemCode, Score: item.Score}
		if item.Note != nil {
			note := strings.TrimSpace(s.sanitizer.Sanitize(*item.Note))
			update.Note = &note
		}
		updates = append(updates, update)
		itemCodes = append(itemCodes, item.ItemCode)
	}

	var response dto.ApplyItemScoresResponse
	err := s.hierarchy.Transaction(ctx, func(tx repository.HierarchyRepository) error {
		found, err := tx.FindItemCodes(ctx, itemCodes)
		if err != nil {
			return err
		}
		if missing := missingCodes(itemCodes, found); len(missing) > 0 {
			return &ItemsNotFoundError{Codes: missing}
		}

		updated, err := tx.ApplyScores(ctx, updates)
		if err != nil {
			return err
		}

		if err := tx.MarkItemsAuditingByCodes(ctx, itemCodes); err != nil {
			return err
		}

		// The cascade runs as set operations over the distinct parent sets,
		// one tier at a time, so the cost tracks the number of touched
		// steps/processes rather than the batch size.
		stepCodes, err := tx.DistinctStepCodesForItems(ctx, itemCodes)
		if err != nil {
			return err
		}
		if err := tx.MarkStepsAuditingByCodes(ctx, stepCodes); err != nil {
			return err
		}

		processCodes, err := tx.DistinctProcessCodesForSteps(ctx, stepCodes)
		if err != nil {
			return err
		}
		if err := tx.MarkProcessesAuditingByCodes(ctx, processCodes); err != nil {
			return err
		}

		response = dto.ApplyItemScoresResponse{
			Updated:           updated,
			StepsCascaded:     len(stepCodes),
			ProcessesCascaded: len(processCodes),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply_item_scores_failed")
		return dto.ApplyItemScoresResponse{}, err
	}

	observability.CascadeOperations().WithLabelValues("apply_item_scores").Inc()
	observability.ScoredItems().Add(float64(response.Updated))
	s.logger.Info().
		Int64("updated", response.Updated).
		Int("steps", response.StepsCascaded).
		Int("processes", response.ProcessesCascaded).
		Msg("item scores applied")
	s.recordActivity(ctx, payload.ActorRef, "scores.applied", "item_batch", "", map[string]interface{}{
		"item_codes": itemCodes,
		"updated":    response.Updated,
	})

	return response, nil
}

func (s *cascadeService) recordActivity(ctx context.Context, actorRef, action, entityType, entityCode string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	_, err := s.activity.Record(ctx, ActivityEntry{
		ActorRef:   actorRef,
		Action:     action,
		EntityType: entityType,
		EntityCode: entityCode,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func missingCodes(requested, found []string) []string {
	present := make(map[string]struct{}, len(found))
	for _, code := range found {
		present[code] = struct{}{}
	}

	var missing []string
	for _, code := range requested {
		if _, ok := present[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
