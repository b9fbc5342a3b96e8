package models

import "time"

// AuditSession is the durable outcome ledger entry for one audit lifecycle.
// ProcessCode is a reference, not ownership: the hierarchy may be deleted
// later while the ledger entry survives. Sessions are never physically
// deleted by the engine.
type AuditSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	ProcessCode     string     `gorm:"size:64;not null;index" json:"process_code"`
	AuditType       string     `gorm:"size:32;not null;index" json:"audit_type"`
	Status          string     `gorm:"size:16;not null;default:PENDING" json:"status"`
	TotalScore      *float64   `json:"total_score"`
	MaxScore        float64    `gorm:"not null;default:5" json:"max_score"`
	Outcome         *string    `gorm:"size:16" json:"outcome"`
	IsSecondAudit   bool       `gorm:"not null;default:false" json:"is_second_audit"`
	ParentSessionID *uint      `gorm:"index" json:"parent_session_id"`
	InheritedFrom   *uint      `json:"inherited_from"`
	AssignedAt      *time.Time `json:"assigned_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsEvaluated reports whether the session already carries an outcome.
func (s AuditSession) IsEvaluated() bool {
	return s.Outcome != nil
}
