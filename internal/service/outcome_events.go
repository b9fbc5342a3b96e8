package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// OutcomeEvent notifies downstream systems (retraining planners, the
// unregistration workflow) that a session has been evaluated.
type OutcomeEvent struct {
	SessionCode        string    `json:"session_code"`
	ProcessCode        string    `json:"process_code"`
	AuditType          string    `json:"audit_type"`
	Outcome            string    `json:"outcome"`
	SpawnedSecondAudit bool      `json:"spawned_second_audit"`
	FlagUnregistration bool      `json:"flag_unregistration"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// OutcomePublisher emits evaluation outcomes to interested consumers.
type OutcomePublisher interface {
	PublishEvaluated(ctx context.Context, event OutcomeEvent) error
}

type natsOutcomePublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewOutcomePublisher wraps a NATS connection as an outcome publisher. A nil
// connection disables publishing, which keeps single-node deployments free of
// a broker requirement.
func NewOutcomePublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) OutcomePublisher {
	if subjectBase == "" {
		subjectBase = "audit.outcome"
	}
	return &natsOutcomePublisher{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "outcome_publisher").Logger(),
	}
}

func (p *natsOutcomePublisher) PublishEvaluated(ctx context.Context, event OutcomeEvent) error {
	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode outcome event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subjectBase, strings.ToLower(event.Outcome))
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Str("session_code", event.SessionCode).Msg("outcome event published")
	return nil
}
