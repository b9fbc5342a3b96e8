package dto

import "github.com/evalworks/audit-api/internal/models"

// ItemScore is one entry of a scoring batch. Note is optional; a nil note
// leaves the stored note untouched.
type ItemScore struct {
	ItemCode string  `json:"item_code" validate:"required"`
	Score    float64 `json:"score" validate:"min=0,max=5"`
	Note     *string `json:"note"`
}

// ApplyItemScoresRequest is the batch scoring payload.
type ApplyItemScoresRequest struct {
	ActorRef string      `json:"actor_ref"`
	Items    []ItemScore `json:"items" validate:"required,min=1,dive"`
}

// ApplyItemScoresResponse reports the effect of a scoring batch.
type ApplyItemScoresResponse struct {
	Updated           int64 `json:"updated"`
	StepsCascaded     int   `json:"steps_cascaded"`
	ProcessesCascaded int   `json:"processes_cascaded"`
}

// StepSnapshot is the step state returned by cascade operations.
type StepSnapshot struct {
	Code        string `json:"code"`
	ProcessCode string `json:"process_code"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Progress    string `json:"progress"`
}

// ProcessSnapshot is the process state returned by cascade operations.
type ProcessSnapshot struct {
	Code      string `json:"code"`
	AuditType string `json:"audit_type"`
	Status    string `json:"status"`
}

// StartStepResponse carries the post-transition step and process state.
type StartStepResponse struct {
	Step    StepSnapshot    `json:"step"`
	Process ProcessSnapshot `json:"process"`
}

// CompleteStepResponse carries the post-transition step state.
type CompleteStepResponse struct {
	Step StepSnapshot `json:"step"`
}

// ThresholdDecision is the evaluator's classification of an aggregate score.
type ThresholdDecision struct {
	Outcome            string `json:"outcome"`
	SpawnSecondAudit   bool   `json:"spawn_second_audit"`
	FlagUnregistration bool   `json:"flag_unregistration"`
	RuleID             uint   `json:"rule_id"`
}

// NewStepSnapshot maps a step model to its snapshot payload.
func NewStepSnapshot(step models.AuditStep) StepSnapshot {
	return StepSnapshot{
		Code:        step.Code,
		ProcessCode: step.ProcessCode,
		Name:        step.Name,
		Status:      step.Status,
		Progress:    step.Progress,
	}
}

// NewProcessSnapshot maps a process model to its snapshot payload.
func NewProcessSnapshot(process models.AuditProcess) ProcessSnapshot {
	return ProcessSnapshot{
		Code:      process.Code,
		AuditType: process.AuditType,
		Status:    process.Status,
	}
}
