package models

import "time"

// ChecklistItem is a single scorable entry within an AuditStep. Score stays
// null until explicitly set; an item counts as scored iff Score is non-null.
type ChecklistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	StepCode  string    `gorm:"size:64;not null;index" json:"step_code"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Score     *float64  `json:"score"`
	MaxScore  float64   `gorm:"not null;default:5" json:"max_score"`
	Status    string    `gorm:"size:16;not null;default:PENDING" json:"status"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemScoreMax is the upper bound of a single item score.
const ItemScoreMax = 5.0

// IsScored reports whether the item has received a score.
func (i ChecklistItem) IsScored() bool {
	return i.Score != nil
}
