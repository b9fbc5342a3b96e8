package dto

import (
	"time"

	"github.com/evalworks/audit-api/internal/models"
)

// ActivityResponse is one workflow trail entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorRef   string                 `json:"actor_ref"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityCode string                 `json:"entity_code"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListRequest filters the activity trail listing.
type ActivityListRequest struct {
	ActorRef   string `json:"actor_ref"`
	Action     string `json:"action"`
	EntityCode string `json:"entity_code"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size" validate:"max=100"`
}

// ActivityListResponse is the paginated activity trail.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse maps an activity log model to its payload.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		ActorRef:   entry.ActorRef,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityCode: entry.EntityCode,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
