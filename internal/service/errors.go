package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProcessNotFound indicates the referenced audit process does not exist.
var ErrProcessNotFound = errors.New("audit process not found")

// ErrStepNotFound indicates the referenced audit step does not exist.
var ErrStepNotFound = errors.New("audit step not found")

// ErrSessionNotFound indicates the referenced audit session does not exist.
var ErrSessionNotFound = errors.New("audit session not found")

// ErrStepAlreadyStarted indicates StartStep was called on a step whose
// progress marker already records a start.
var ErrStepAlreadyStarted = errors.New("audit step already started")

// ErrStepNotStarted indicates CompleteStep was called on a step that was
// never started.
var ErrStepNotStarted = errors.New("audit step not started")

// ErrSessionNotScored indicates the session has no total score to evaluate.
var ErrSessionNotScored = errors.New("audit session has no total score")

// ErrSessionAlreadyEvaluated indicates the session already carries an
// outcome; re-evaluation would spawn duplicate follow-up sessions.
var ErrSessionAlreadyEvaluated = errors.New("audit session already evaluated")

// ErrNoMatchingThreshold indicates the active threshold rules of an audit
// type do not cover the evaluated score. This is a configuration defect in
// the rule data, not a retryable condition.
var ErrNoMatchingThreshold = errors.New("no active threshold rule matches score")

// IncompleteScoringError rejects step completion while unscored items remain.
type IncompleteScoringError struct {
	Remaining int64
}

func (e *IncompleteScoringError) Error() string {
	return fmt.Sprintf("%d checklist items remain unscored", e.Remaining)
}

// ItemsNotFoundError rejects a scoring batch referencing unknown items. The
// whole batch is discarded; Codes lists every missing reference.
type ItemsNotFoundError struct {
	Codes []string
}

func (e *ItemsNotFoundError) Error() string {
	return fmt.Sprintf("checklist items not found: %s", strings.Join(e.Codes, ", "))
}
