package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
)

// SurveyRepository implements domain.SurveyRepository
type SurveyRepository struct {
	db *DB
}

// NewSurveyRepository creates a new survey repository
func NewSurveyRepository(db *DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	query := `
		SELECT id, user_id, status, answers, is_public, created_at, updated_at
		FROM surveys
		WHERE id = $1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *SurveyRepository) GetStatusFor(ctx context.Context, id, userID uuid.UUID) (domain.SurveyStatus, error) {
	query := `
		SELECT status
		FROM surveys
		WHERE id = $1 AND user_id = $2
	`
	var status domain.SurveyStatus
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get survey status: %w", err)
	}
	return status, nil
}

func (r *SurveyRepository) GetInProgressFor(ctx context.Context, userID uuid.UUID) (*domain.Survey, error) {
	query := `
		SELECT id, user_id, status, answers, is_public, created_at, updated_at
		FROM surveys
		WHERE user_id = $1 AND status = 'in_progress'
		ORDER BY created_at DESC
		LIMIT 1
	`
	survey, err := r.scanOne(r.db.Pool.QueryRow(ctx, query, userID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return survey, err
}

func (r *SurveyRepository) Insert(ctx context.Context, userID uuid.UUID, answers map[string]any) (*domain.Survey, error) {
	if answers == nil {
		answers = map[string]any{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	now := time.Now()
	survey := &domain.Survey{
		ID:        uuid.New(),
		UserID:    &userID,
		Status:    domain.StatusInProgress,
		Answers:   answers,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO surveys (id, user_id, status, answers, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Pool.Exec(ctx, query,
		survey.ID,
		userID,
		survey.Status,
		data,
		survey.IsPublic,
		survey.CreatedAt,
		survey.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert survey: %w", err)
	}
	return survey, nil
}

func (r *SurveyRepository) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]any) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		UPDATE surveys
		SET answers = $1, updated_at = $2
		WHERE id = $3 AND status = 'in_progress'
	`
	tag, err := r.db.Pool.Exec(ctx, query, data, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update answers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus performs the in_progress -> completed transition as a
// conditional write. A zero row count with the row present means the
// survey was already completed by another writer.
func (r *SurveyRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status domain.SurveyStatus) (bool, error) {
	query := `
		UPDATE surveys
		SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = 'in_progress'
	`
	tag, err := r.db.Pool.Exec(ctx, query, status, time.Now(), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update survey status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish "already completed" from "not yours / not there".
	current, err := r.GetStatusFor(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if current == domain.StatusCompleted {
		return false, nil
	}
	return false, domain.ErrNotFound
}

func (r *SurveyRepository) UpdatePublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error {
	query := `
		UPDATE surveys
		SET is_public = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = 'completed'
	`
	tag, err := r.db.Pool.Exec(ctx, query, isPublic, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update survey visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SurveyRepository) ListCompletedFor(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Survey, error) {
	query := `
		SELECT id, user_id, status, answers, is_public, created_at, updated_at
		FROM surveys
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	var surveys []domain.Survey
	for rows.Next() {
		var (
			s    domain.Survey
			data []byte
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Status, &data, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		if err := json.Unmarshal(data, &s.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

func (r *SurveyRepository) scanOne(row pgx.Row) (*domain.Survey, error) {
	var (
		s    domain.Survey
		data []byte
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &data, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if err := json.Unmarshal(data, &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	return &s, nil
}
