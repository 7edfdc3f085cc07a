package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SurveyStatus is the lifecycle state of a survey attempt
type SurveyStatus string

const (
	StatusInProgress SurveyStatus = "in_progress"
	StatusCompleted  SurveyStatus = "completed"
)

// Survey represents one questionnaire attempt by a subject.
// A subject has at most one in_progress survey at any time; completed
// surveys are immutable except for IsPublic.
type Survey struct {
	ID        uuid.UUID      `json:"id"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	Status    SurveyStatus   `json:"status"`
	Answers   map[string]any `json:"answers"`
	IsPublic  bool           `json:"is_public"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PendingProgress holds answers captured before the respondent had an
// identity, together with the wizard step they reached. It lives in a
// TTL'd buffer keyed by an opaque client-supplied buffer id and is
// deleted once merged into a survey.
type PendingProgress struct {
	Answers map[string]any `json:"answers"`
	Step    int            `json:"step"`
}

// SurveyRepository defines the persistence contract for surveys
type SurveyRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Survey, error)
	// GetStatusFor reads the current status scoped to the owning user,
	// straight from the store. Returns ErrNotFound if the survey does
	// not exist or belongs to someone else.
	GetStatusFor(ctx context.Context, id, userID uuid.UUID) (SurveyStatus, error)
	GetInProgressFor(ctx context.Context, userID uuid.UUID) (*Survey, error)
	Insert(ctx context.Context, userID uuid.UUID, answers map[string]any) (*Survey, error)
	UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]any) error
	// UpdateStatus transitions in_progress -> completed for the given
	// (survey, user) pair. Returns (false, nil) when the row was already
	// completed, i.e. another writer won.
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, status SurveyStatus) (bool, error)
	UpdatePublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error
	ListCompletedFor(ctx context.Context, userID uuid.UUID, limit int) ([]Survey, error)
}

// PendingBufferStore holds pre-auth progress for anonymous respondents
type PendingBufferStore interface {
	Get(ctx context.Context, bufferID string) (*PendingProgress, error)
	Save(ctx context.Context, bufferID string, progress *PendingProgress) error
	Delete(ctx context.Context, bufferID string) error
}

// WriteLimiter enforces the per-subject answer write budget
type WriteLimiter interface {
	// Allow reports whether one more write fits the budget, along with
	// the remaining allowance and when the window resets.
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
}
