package dto

import (
	"time"

	"github.com/evalworks/audit-api/internal/models"
)

// SessionCreateRequest opens a ledger entry when a process is assigned.
type SessionCreateRequest struct {
	ProcessCode string `json:"process_code" validate:"required"`
	AuditorRef  string `json:"auditor_ref" validate:"required"`
}

// SessionListRequest filters the session ledger listing.
type SessionListRequest struct {
	ProcessCode string `json:"process_code"`
	AuditType   string `json:"audit_type"`
	Status      string `json:"status"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size" validate:"max=100"`
}

// SessionResponse is the ledger entry payload.
type SessionResponse struct {
	Code            string     `json:"code"`
	ProcessCode     string     `json:"process_code"`
	AuditType       string     `json:"audit_type"`
	Status          string     `json:"status"`
	TotalScore      *float64   `json:"total_score"`
	MaxScore        float64    `json:"max_score"`
	Outcome         *string    `json:"outcome"`
	IsSecondAudit   bool       `json:"is_second_audit"`
	ParentSessionID *uint      `json:"parent_session_id"`
	InheritedFrom   *uint      `json:"inherited_from"`
	AssignedAt      *time.Time `json:"assigned_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// SessionListResponse is the paginated ledger listing.
type SessionListResponse struct {
	Items      []SessionResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// SessionEvaluation is the result of running the threshold evaluator over a
// completed session. SecondAudit is set only when the matched rule spawned a
// follow-up session.
type SessionEvaluation struct {
	Session     SessionResponse   `json:"session"`
	Decision    ThresholdDecision `json:"decision"`
	SecondAudit *SessionResponse  `json:"second_audit,omitempty"`
}

// NewSessionResponse maps a session model to its payload.
func NewSessionResponse(session models.AuditSession) SessionResponse {
	return SessionResponse{
		Code:            session.Code,
		ProcessCode:     session.ProcessCode,
		AuditType:       session.AuditType,
		Status:          session.Status,
		TotalScore:      session.TotalScore,
		MaxScore:        session.MaxScore,
		Outcome:         session.Outcome,
		IsSecondAudit:   session.IsSecondAudit,
		ParentSessionID: session.ParentSessionID,
		InheritedFrom:   session.InheritedFrom,
		AssignedAt:      session.AssignedAt,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
	}
}

// NewSessionResponseSlice maps session models to payloads.
func NewSessionResponseSlice(sessions []models.AuditSession) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, NewSessionResponse(session))
	}
	return responses
}
