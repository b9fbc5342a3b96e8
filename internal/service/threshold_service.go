package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
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

// AggregateScore computes the session total on the 0-5 scale:
// sum(actual) / sum(max) * 5.0, rounded half away from zero to two decimals.
// A zero sum on either side yields 0.00, which covers both the empty session
// and the division-by-zero case.
func AggregateScore(actual, max []float64) float64 {
	var sumActual, sumMax float64
	for _, v := range actual {
		sumActual += v
	}
	for _, v := range max {
		sumMax += v
	}
	if sumActual == 0 || sumMax == 0 {
		return 0
	}
	return math.Round(sumActual/sumMax*models.ItemScoreMax*100) / 100
}

// ThresholdService converts aggregate scores into classified outcomes and
// records them on the session ledger. Classification itself never touches
// the hierarchy store.
type ThresholdService interface {
	Classify(ctx context.Context, auditType string, score float64) (dto.ThresholdDecision, error)
	EvaluateSession(ctx context.Context, sessionCode, actorRef string) (dto.SessionEvaluation, error)
}

type thresholdService struct {
	rules    repository.ThresholdRuleRepository
	sessions repository.SessionRepository
	activity ActivityRecorder
	events   OutcomePublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewThresholdService constructs the threshold evaluator.
func NewThresholdService(rules repository.ThresholdRuleRepository, sessions repository.SessionRepository, activity ActivityRecorder, events OutcomePublisher, logger zerolog.Logger) ThresholdService {
	return &thresholdService{
		rules:    rules,
		sessions: sessions,
		activity: activity,
		events:   events,
		logger:   logger.With().Str("component", "threshold_service").Logger(),
		tracer:   otel.Tracer("github.com/evalworks/audit-api/internal/service/threshold"),
		now:      time.Now,
	}
}

// Classify matches score s against the active rules of the audit type:
// s >= min (nil min is -inf) and s < max (nil max is +inf). Rules are loaded
// fresh on every call so configuration changes apply to the next evaluation.
func (s *thresholdService) Classify(ctx context.Context, auditType string, score float64) (dto.ThresholdDecision, error) {
	rules, err := s.rules.ListActive(ctx, auditType)
	if err != nil {
		return dto.ThresholdDecision{}, err
	}

	for _, rule := range rules {
		if !rule.Matches(score) {
			continue
		}

		followUp := rule.ThresholdType == models.OutcomeRetrain || rule.ThresholdType == models.OutcomeTerminate
		return dto.ThresholdDecision{
			Outcome:            rule.ThresholdType,
			SpawnSecondAudit:   followUp && rule.SpawnsSecondAudit,
			FlagUnregistration: rule.FlagsUnregistration,
			RuleID:             rule.ID,
		}, nil
	}

	s.logger.Error().
		Str("audit_type", auditType).
		Float64("score", score).
		Msg("threshold configuration does not cover score")
	return dto.ThresholdDecision{}, ErrNoMatchingThreshold
}

func (s *thresholdService) EvaluateSession(ctx context.Context, sessionCode, actorRef string) (dto.SessionEvaluation, error) {
	ctx, span := s.tracer.Start(ctx, "threshold.evaluate_session",
		trace.WithAttributes(attribute.String("audit.session_code", sessionCode)))
	defer span.End()

	var evaluation dto.SessionEvaluation
	err := s.sessions.Transaction(ctx, func(tx repository.SessionRepository) error {
		session, err := tx.GetByCodeForUpdate(ctx, sessionCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if session.IsEvaluated() {
			return ErrSessionAlreadyEvaluated
		}
		if session.TotalScore == nil {
			return ErrSessionNotScored
		}

		decision, err := s.Classify(ctx, session.AuditType, *session.TotalScore)
		if err != nil {
			return err
		}

		outcome := decision.Outcome
		session.Outcome = &outcome
		if err := tx.Update(ctx, &session); err != nil {
			return err
		}

		evaluation = dto.SessionEvaluation{
			Session:  dto.NewSessionResponse(session),
			Decision: decision,
		}

		if decision.SpawnSecondAudit {
			assignedAt := s.now()
			child := models.AuditSession{
				Code:            uuid.NewString(),
				ProcessCode:     session.ProcessCode,
				AuditType:       session.AuditType,
				Status:          models.StatusPending,
				MaxScore:        session.MaxScore,
				IsSecondAudit:   true,
				ParentSessionID: &session.ID,
				AssignedAt:      &assignedAt,
			}
			if err := tx.Create(ctx, &child); err != nil {
				return err
			}
			childResponse := dto.NewSessionResponse(child)
			evaluation.SecondAudit = &childResponse
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate_session_failed")
		return dto.SessionEvaluation{}, err
	}

	observability.Evaluations().WithLabelValues(evaluation.Decision.Outcome).Inc()
	s.logger.Info().
		Str("session_code", sessionCode).
		Str("outcome", evaluation.Decision.Outcome).
		Bool("second_audit", evaluation.SecondAudit != nil).
		Bool("flag_unregistration", evaluation.Decision.FlagUnregistration).
		Msg("session evaluated")

	if s.events != nil {
		event := OutcomeEvent{
			SessionCode:        evaluation.Session.Code,
			ProcessCode:        evaluation.Session.ProcessCode,
			AuditType:          evaluation.Session.AuditType,
			Outcome:            evaluation.Decision.Outcome,
			SpawnedSecondAudit: evaluation.SecondAudit != nil,
			FlagUnregistration: evaluation.Decision.FlagUnregistration,
			OccurredAt:         s.now(),
		}
		if err := s.events.PublishEvaluated(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("session_code", sessionCode).Msg("failed to publish outcome event")
		}
	}

	if s.activity != nil {
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorRef:   actorRef,
			Action:     "session.evaluated",
			EntityType: "session",
			EntityCode: sessionCode,
			Metadata: map[string]interface{}{
				"outcome":             evaluation.Decision.Outcome,
				"spawn_second_audit":  evaluation.SecondAudit != nil,
				"flag_unregistration": evaluation.Decision.FlagUnregistration,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record activity")
		}
	}

	return evaluation, nil
}
