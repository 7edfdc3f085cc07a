package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pillar names scores are aggregated under
const (
	PillarCareer      = "Career"
	PillarFinances    = "Finances"
	PillarHealth      = "Health"
	PillarConnections = "Connections"
)

// Insight is a descriptive observation derived from the answer set
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Action is a suggested next step derived from the answer set
type Action struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Profile is the derived result of a completed survey. At most one
// profile ever exists per survey; it is never mutated after insert.
type Profile struct {
	ID        uuid.UUID          `json:"id"`
	SurveyID  uuid.UUID          `json:"survey_id"`
	Scores    map[string]float64 `json:"scores"`
	Insights  []Insight          `json:"insights"`
	Actions   []Action           `json:"actions"`
	CreatedAt time.Time          `json:"created_at"`
}

// ProfileRepository defines the persistence contract for profiles
type ProfileRepository interface {
	GetBySurvey(ctx context.Context, surveyID uuid.UUID) (*Profile, error)
	// Insert creates the profile if none exists for its survey yet.
	// Returns (false, nil) when one already existed.
	Insert(ctx context.Context, profile *Profile) (bool, error)
}
