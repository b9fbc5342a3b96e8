package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/repository"
)

type fakeThresholdRuleRepo struct {
	rules []models.ThresholdRule
}

func (f *fakeThresholdRuleRepo) ListActive(ctx context.Context, auditType string) ([]models.ThresholdRule, error) {
	var matched []models.ThresholdRule
	for _, rule := range f.rules {
		if rule.AuditType == auditType && rule.Active {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

type fakeSessionRepo struct {
	sessions map[string]*models.AuditSession
	nextID   uint
	created  []*models.AuditSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.AuditSession{}, nextID: 1}
}

func (f *fakeSessionRepo) add(session models.AuditSession) *models.AuditSession {
	session.ID = f.nextID
	f.nextID++
	stored := session
	f.sessions[session.Code] = &stored
	return &stored
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.AuditSession) error {
	session.ID = f.nextID
	f.nextID++
	stored := *session
	f.sessions[session.Code] = &stored
	f.created = append(f.created, &stored)
	return nil
}

func (f *fakeSessionRepo) GetByCode(ctx context.Context, code string) (models.AuditSession, error) {
	if session, ok := f.sessions[code]; ok {
		return *session, nil
	}
	return models.AuditSession{}, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) GetByCodeForUpdate(ctx context.Context, code string) (models.AuditSession, error) {
	return f.GetByCode(ctx, code)
}

func (f *fakeSessionRepo) Update(ctx context.Context, session *models.AuditSession) error {
	stored := *session
	f.sessions[session.Code] = &stored
	return nil
}

func (f *fakeSessionRepo) List(ctx context.Context, filter repository.SessionFilter) ([]models.AuditSession, int64, error) {
	var out []models.AuditSession
	for _, session := range f.sessions {
		if filter.ProcessCode != "" && session.ProcessCode != filter.ProcessCode {
			continue
		}
		if filter.AuditType != "" && session.AuditType != filter.AuditType {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		out = append(out, *session)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) Transaction(ctx context.Context, fn func(repository.SessionRepository) error) error {
	return fn(f)
}

type capturingPublisher struct {
	events []OutcomeEvent
}

func (p *capturingPublisher) PublishEvaluated(ctx context.Context, event OutcomeEvent) error {
	p.events = append(p.events, event)
	return nil
}

func weeklyRules() []models.ThresholdRule {
	return []models.ThresholdRule{
		{ID: 1, AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomePass, MinScore: floatPtr(3.0), Active: true},
		{ID: 2, AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomeRetrain, MinScore: floatPtr(2.29), MaxScore: floatPtr(3.0), SpawnsSecondAudit: true, Active: true},
		{ID: 3, AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomeTerminate, MaxScore: floatPtr(2.29), SpawnsSecondAudit: true, FlagsUnregistration: true, Active: true},
	}
}

func TestAggregateScore(t *testing.T) {
	require.Equal(t, 4.0, AggregateScore([]float64{3, 4, 5}, []float64{5, 5, 5}))
	require.Equal(t, 5.0, AggregateScore([]float64{5, 5}, []float64{5, 5}))
	require.Equal(t, 3.67, AggregateScore([]float64{3, 4, 4}, []float64{5, 5, 5}), "rounded half away from zero to two decimals")
	require.Equal(t, 0.0, AggregateScore(nil, nil), "empty session scores zero")
	require.Equal(t, 0.0, AggregateScore([]float64{3}, []float64{0}), "zero max sum scores zero instead of dividing by zero")
}

func TestClassifyPartitionsScoreRange(t *testing.T) {
	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: weeklyRules()}, newFakeSessionRepo(), nil, nil, testLogger())

	cases := []struct {
		score   float64
		outcome string
	}{
		{5.0, models.OutcomePass},
		{3.0, models.OutcomePass},
		{2.99, models.OutcomeRetrain},
		{2.29, models.OutcomeRetrain},
		{2.28, models.OutcomeTerminate},
		{2.0, models.OutcomeTerminate},
		{0.0, models.OutcomeTerminate},
	}

	for _, tc := range cases {
		decision, err := svc.Classify(context.Background(), models.AuditTypeWeekly, tc.score)
		require.NoError(t, err, "score %.2f", tc.score)
		require.Equal(t, tc.outcome, decision.Outcome, "score %.2f", tc.score)
	}
}

func TestClassifyPassNeverSpawnsSecondAudit(t *testing.T) {
	rules := []models.ThresholdRule{
		{ID: 1, AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomePass, MinScore: floatPtr(3.0), SpawnsSecondAudit: true, Active: true},
	}
	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: rules}, newFakeSessionRepo(), nil, nil, testLogger())

	decision, err := svc.Classify(context.Background(), models.AuditTypeWeekly, 4.5)
	require.NoError(t, err)
	require.Equal(t, models.OutcomePass, decision.Outcome)
	require.False(t, decision.SpawnSecondAudit, "second audits only follow retrain/terminate outcomes")
}

func TestClassifyNoMatchingRule(t *testing.T) {
	rules := []models.ThresholdRule{
		{ID: 1, AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomePass, MinScore: floatPtr(3.0), Active: true},
	}
	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: rules}, newFakeSessionRepo(), nil, nil, testLogger())

	_, err := svc.Classify(context.Background(), models.AuditTypeWeekly, 1.5)
	require.ErrorIs(t, err, ErrNoMatchingThreshold)

	_, err = svc.Classify(context.Background(), models.AuditTypeMonthly, 4.0)
	require.ErrorIs(t, err, ErrNoMatchingThreshold, "rules of another audit type must not apply")
}

func TestClassifyIgnoresInactiveRules(t *testing.T) {
	rules := weeklyRules()
	rules[0].Active = false
	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: rules}, newFakeSessionRepo(), nil, nil, testLogger())

	decision, err := svc.Classify(context.Background(), models.AuditTypeWeekly, 2.5)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeRetrain, decision.Outcome)

	_, err = svc.Classify(context.Background(), models.AuditTypeWeekly, 4.0)
	require.ErrorIs(t, err, ErrNoMatchingThreshold)
}

func TestEvaluateSessionSpawnsSecondAuditOnce(t *testing.T) {
	sessions := newFakeSessionRepo()
	parent := sessions.add(models.AuditSession{
		Code:        "sess-1",
		ProcessCode: "P1",
		AuditType:   models.AuditTypeWeekly,
		Status:      models.StatusAudited,
		TotalScore:  floatPtr(2.5),
		MaxScore:    models.ItemScoreMax,
	})

	publisher := &capturingPublisher{}
	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: weeklyRules()}, sessions, nil, publisher, testLogger())

	evaluation, err := svc.EvaluateSession(context.Background(), "sess-1", "supervisor-1")
	require.NoError(t, err)
	require.Equal(t, models.OutcomeRetrain, evaluation.Decision.Outcome)
	require.NotNil(t, evaluation.SecondAudit)
	require.True(t, evaluation.SecondAudit.IsSecondAudit)
	require.Equal(t, "P1", evaluation.SecondAudit.ProcessCode)

	require.Len(t, sessions.created, 1)
	child := sessions.created[0]
	require.NotNil(t, child.ParentSessionID)
	require.Equal(t, parent.ID, *child.ParentSessionID)
	require.Equal(t, models.StatusPending, child.Status)
	require.Nil(t, child.TotalScore)

	require.Len(t, publisher.events, 1)
	require.Equal(t, models.OutcomeRetrain, publisher.events[0].Outcome)
	require.True(t, publisher.events[0].SpawnedSecondAudit)

	// Re-evaluating the same session must not spawn another follow-up.
	_, err = svc.EvaluateSession(context.Background(), "sess-1", "supervisor-1")
	require.ErrorIs(t, err, ErrSessionAlreadyEvaluated)
	require.Len(t, sessions.created, 1)
}

func TestEvaluateSessionPassOutcome(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(models.AuditSession{
		Code:        "sess-2",
		ProcessCode: "P1",
		AuditType:   models.AuditTypeWeekly,
		Status:      models.StatusAudited,
		TotalScore:  floatPtr(4.2),
		MaxScore:    models.ItemScoreMax,
	})

	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: weeklyRules()}, sessions, nil, nil, testLogger())

	evaluation, err := svc.EvaluateSession(context.Background(), "sess-2", "supervisor-1")
	require.NoError(t, err)
	require.Equal(t, models.OutcomePass, evaluation.Decision.Outcome)
	require.Nil(t, evaluation.SecondAudit)
	require.NotNil(t, evaluation.Session.Outcome)
	require.Equal(t, models.OutcomePass, *evaluation.Session.Outcome)
	require.Empty(t, sessions.created)
}

func TestEvaluateSessionGuards(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.add(models.AuditSession{
		Code:        "unscored",
		ProcessCode: "P1",
		AuditType:   models.AuditTypeWeekly,
		Status:      models.StatusAuditing,
		MaxScore:    models.ItemScoreMax,
	})

	svc := NewThresholdService(&fakeThresholdRuleRepo{rules: weeklyRules()}, sessions, nil, nil, testLogger())

	_, err := svc.EvaluateSession(context.Background(), "missing", "supervisor-1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.EvaluateSession(context.Background(), "unscored", "supervisor-1")
	require.ErrorIs(t, err, ErrSessionNotScored)
}
