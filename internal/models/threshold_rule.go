package models

import "time"

// ThresholdRule maps an aggregate score range to an outcome for one audit
// type. A rule matches score s when s >= MinScore (nil means -inf) and
// s < MaxScore (nil means +inf). The active rules of an audit type are
// expected to partition the score range; gaps and overlaps are configuration
// defects, not runtime conditions.
type ThresholdRule struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	AuditType           string    `gorm:"size:32;not null;index:idx_threshold_rules_type_active" json:"audit_type"`
	ThresholdType       string    `gorm:"size:16;not null" json:"threshold_type"`
	MinScore            *float64  `json:"min_score"`
	MaxScore            *float64  `json:"max_score"`
	SpawnsSecondAudit   bool      `gorm:"not null;default:false" json:"spawns_second_audit"`
	FlagsUnregistration bool      `gorm:"not null;default:false" json:"flags_unregistration"`
	Active              bool      `gorm:"not null;default:true;index:idx_threshold_rules_type_active" json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

const (
	// OutcomePass clears the audited teacher.
	OutcomePass = "PASS"
	// OutcomeRetrain sends the teacher to retraining, usually with a second audit.
	OutcomeRetrain = "RETRAIN"
	// OutcomeTerminate flags the teacher for contract termination.
	OutcomeTerminate = "TERMINATE"
)

// Matches reports whether the rule covers the given score.
func (r ThresholdRule) Matches(score float64) bool {
	if r.MinScore != nil && score < *r.MinScore {
		return false
	}
	if r.MaxScore != nil && score >= *r.MaxScore {
		return false
	}
	return true
}
