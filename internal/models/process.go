package models

import "time"

// AuditProcess is one audit unit for one subject (teacher) and audit type.
// Its status is written exclusively by the cascade engine and only ever moves
// forward through PENDING -> AUDITING -> AUDITED.
type AuditProcess struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Code       string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	AuditType  string    `gorm:"size:32;not null;index" json:"audit_type"`
	Status     string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	SubjectRef string    `gorm:"size:64;not null;index" json:"subject_ref"`
	AuditorRef *string   `gorm:"size:64" json:"auditor_ref"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	// AuditTypeOnboard is the probation audit run for new teachers.
	AuditTypeOnboard = "ONBOARD"
	// AuditTypeWeekly is the recurring weekly quality audit.
	AuditTypeWeekly = "WEEKLY"
	// AuditTypeHotcase is the escalation audit triggered by complaints.
	AuditTypeHotcase = "HOTCASE"
	// AuditTypeMonthly is the recurring monthly quality audit.
	AuditTypeMonthly = "MONTHLY"
)

// KnownAuditType reports whether the given audit type is recognised.
func KnownAuditType(auditType string) bool {
	switch auditType {
	case AuditTypeOnboard, AuditTypeWeekly, AuditTypeHotcase, AuditTypeMonthly:
		return true
	}
	return false
}
