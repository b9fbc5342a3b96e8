package dto

// StepProgress summarises scoring progress for one step.
type StepProgress struct {
	StepCode    string `json:"step_code"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Progress    string `json:"progress"`
	TotalItems  int    `json:"total_items"`
	ScoredItems int    `json:"scored_items"`
}

// ProcessProgressResponse summarises scoring progress across a process. The
// provisional score uses the same aggregation formula as the threshold
// evaluator but over whatever has been scored so far.
type ProcessProgressResponse struct {
	ProcessCode      string         `json:"process_code"`
	AuditType        string         `json:"audit_type"`
	Status           string         `json:"status"`
	Steps            []StepProgress `json:"steps"`
	TotalItems       int            `json:"total_items"`
	ScoredItems      int            `json:"scored_items"`
	ProvisionalScore float64        `json:"provisional_score"`
}
