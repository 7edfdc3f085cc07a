package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetBySurvey(ctx context.Context, surveyID uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, survey_id, scores, insights, actions, created_at
		FROM profiles
		WHERE survey_id = $1
	`
	var (
		p        domain.Profile
		scores   []byte
		insights []byte
		actions  []byte
	)
	err := r.db.Pool.QueryRow(ctx, query, surveyID).Scan(
		&p.ID, &p.SurveyID, &scores, &insights, &actions, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := json.Unmarshal(scores, &p.Scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	if err := json.Unmarshal(insights, &p.Insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}
	if err := json.Unmarshal(actions, &p.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}
	return &p, nil
}

// Insert creates the profile unless one already exists for the survey.
// The unique index on survey_id plus ON CONFLICT DO NOTHING makes the
// insert the at-most-once point even when two completions race.
func (r *ProfileRepository) Insert(ctx context.Context, profile *domain.Profile) (bool, error) {
	scores, err := json.Marshal(profile.Scores)
	if err != nil {
		return false, fmt.Errorf("failed to marshal scores: %w", err)
	}
	insights, err := json.Marshal(profile.Insights)
	if err != nil {
		return false, fmt.Errorf("failed to marshal insights: %w", err)
	}
	actions, err := json.Marshal(profile.Actions)
	if err != nil {
		return false, fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO profiles (id, survey_id, scores, insights, actions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (survey_id) DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		profile.ID,
		profile.SurveyID,
		scores,
		insights,
		actions,
		profile.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
