package models

import "time"

// AuditStep is a named phase of an AuditProcess. ProcessCode is immutable
// after creation. Progress is the explicit tri-state start/complete marker;
// Note holds free text only and carries no workflow meaning.
type AuditStep struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	ProcessCode string    `gorm:"size:64;not null;index" json:"process_code"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Status      string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	Progress    string    `gorm:"size:16;not null;default:NOT_STARTED" json:"progress"`
	Note        string    `gorm:"type:text" json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	// ProgressNotStarted indicates StartStep has not been called for the step.
	ProgressNotStarted = "NOT_STARTED"
	// ProgressStarted indicates the step was explicitly started.
	ProgressStarted = "STARTED"
	// ProgressCompleted indicates the step was completed through CompleteStep.
	ProgressCompleted = "COMPLETED"
)

// IsStarted reports whether the step has been explicitly started (or later
// completed).
func (s AuditStep) IsStarted() bool {
	return s.Progress == ProgressStarted || s.Progress == ProgressCompleted
}
