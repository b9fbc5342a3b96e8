package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures workflow events recorded by the cascade engine and
// threshold evaluator (step started, scores applied, session evaluated).
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorRef   string            `gorm:"size:64;not null" json:"actor_ref"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:32;not null" json:"entity_type"`
	EntityCode string            `gorm:"size:64;not null;index" json:"entity_code"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
