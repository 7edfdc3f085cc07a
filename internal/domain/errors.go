package domain

import "errors"

var (
	// ErrNotFound is returned when a survey, profile or user does not
	// exist (or is not owned by the requesting subject).
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the per-subject write budget is
	// exhausted. No write has happened; the caller may retry later.
	ErrRateLimited = errors.New("write budget exceeded")

	// ErrInvalidState is returned for operations that require a
	// different survey status, e.g. sharing an in_progress survey.
	ErrInvalidState = errors.New("invalid survey state")
)

// ValidationError reports a single answer failing its question schema.
// Invalid answers are dropped individually; siblings proceed.
type ValidationError struct {
	QuestionID string
	Message    string
}

func (e *ValidationError) Error() string {
	return "invalid answer for " + e.QuestionID + ": " + e.Message
}
