package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/telemetry"
)

// ResolveResult is the outcome of resolving a subject's session
type ResolveResult struct {
	Survey *domain.Survey
	// Resumed distinguishes "picked up where you left off" from a
	// fresh session, for caller-visible messaging.
	Resumed bool
	// Step is the wizard step carried over from the pending buffer.
	Step int
}

// SurveyService resolves survey sessions and records answers
type SurveyService struct {
	surveyRepo   domain.SurveyRepository
	pending      domain.PendingBufferStore
	limiter      domain.WriteLimiter
	schemas      *domain.SchemaRegistry
	metrics      *telemetry.Metrics
	historyLimit int
}

// NewSurveyService creates a new survey service
func NewSurveyService(
	surveyRepo domain.SurveyRepository,
	pending domain.PendingBufferStore,
	limiter domain.WriteLimiter,
	schemas *domain.SchemaRegistry,
	metrics *telemetry.Metrics,
	historyLimit int,
) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		pending:      pending,
		limiter:      limiter,
		schemas:      schemas,
		metrics:      metrics,
		historyLimit: historyLimit,
	}
}

// ResolveSession returns the subject's current in-progress survey,
// merging any pre-auth pending buffer into it, or creates one.
//
// The pending buffer wins on key conflicts: buffered answers are the
// most recent from the respondent's point of view. The buffer is only
// deleted after the merged state has been persisted, so a failed
// resolve leaves both sides untouched.
func (s *SurveyService) ResolveSession(ctx context.Context, userID uuid.UUID, bufferID string) (*ResolveResult, error) {
	existing, err := s.surveyRepo.GetInProgressFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}

	var progress *domain.PendingProgress
	if bufferID != "" {
		progress, err = s.pending.Get(ctx, bufferID)
		if err != nil {
			return nil, fmt.Errorf("failed to read pending buffer: %w", err)
		}
	}

	if progress != nil && len(progress.Answers) > 0 {
		if existing != nil {
			merged := make(map[string]any, len(existing.Answers)+len(progress.Answers))
			for k, v := range existing.Answers {
				merged[k] = v
			}
			for k, v := range progress.Answers {
				merged[k] = v
			}

			if err := s.surveyRepo.UpdateAnswers(ctx, existing.ID, merged); err != nil {
				return nil, fmt.Errorf("failed to merge pending answers: %w", err)
			}
			existing.Answers = merged

			s.clearBuffer(ctx, bufferID)
			s.metrics.PendingBuffersMerged.Inc()
			s.metrics.SessionsResumed.Inc()

			log.Info().Str("survey_id", existing.ID.String()).Int("merged", len(progress.Answers)).Msg("Merged pending answers into existing survey")
			return &ResolveResult{Survey: existing, Resumed: true, Step: progress.Step}, nil
		}

		created, err := s.surveyRepo.Insert(ctx, userID, progress.Answers)
		if err != nil {
			return nil, fmt.Errorf("failed to create survey: %w", err)
		}

		s.clearBuffer(ctx, bufferID)
		s.metrics.PendingBuffersMerged.Inc()
		s.metrics.SessionsResumed.Inc()

		log.Info().Str("survey_id", created.ID.String()).Msg("Created survey from pending answers")
		return &ResolveResult{Survey: created, Resumed: true, Step: progress.Step}, nil
	}

	if existing != nil {
		s.metrics.SessionsResumed.Inc()
		log.Info().Str("survey_id", existing.ID.String()).Msg("Resuming existing survey session")
		return &ResolveResult{Survey: existing, Resumed: true}, nil
	}

	created, err := s.surveyRepo.Insert(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	s.metrics.SessionsCreated.Inc()
	log.Info().Str("survey_id", created.ID.String()).Msg("Created new survey session")
	return &ResolveResult{Survey: created, Resumed: false}, nil
}

func (s *SurveyService) clearBuffer(ctx context.Context, bufferID string) {
	if err := s.pending.Delete(ctx, bufferID); err != nil {
		// The merge already persisted; a leftover buffer re-merges
		// harmlessly on the next resolve.
		log.Warn().Err(err).Str("buffer_id", bufferID).Msg("Failed to clear pending buffer")
	}
}

// RecordPending stores an answer for a respondent with no identity
// yet. Local to the buffer: no validation, no write budget.
func (s *SurveyService) RecordPending(ctx context.Context, bufferID, questionID string, answer any, step *int) error {
	progress, err := s.pending.Get(ctx, bufferID)
	if err != nil {
		return fmt.Errorf("failed to read pending buffer: %w", err)
	}
	if progress == nil {
		progress = &domain.PendingProgress{Answers: map[string]any{}}
	}
	if progress.Answers == nil {
		progress.Answers = map[string]any{}
	}

	progress.Answers[questionID] = answer
	if step != nil {
		progress.Step = *step
	}

	if err := s.pending.Save(ctx, bufferID, progress); err != nil {
		return fmt.Errorf("failed to save pending buffer: %w", err)
	}
	return nil
}

// RecordAnswer validates and persists a single answer
func (s *SurveyService) RecordAnswer(ctx context.Context, userID, surveyID uuid.UUID, questionID string, raw any) (*domain.Survey, error) {
	return s.RecordAnswers(ctx, userID, surveyID, map[string]any{questionID: raw})
}

// RecordAnswers validates and persists a batch of answers under the
// subject's write budget. Answers are independent: one failing its
// schema is dropped (and logged) while its siblings proceed. The
// whole batch counts as one write against the budget.
func (s *SurveyService) RecordAnswers(ctx context.Context, userID, surveyID uuid.UUID, raw map[string]any) (*domain.Survey, error) {
	allowed, _, _, err := s.limiter.Allow(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check write budget: %w", err)
	}
	if !allowed {
		s.metrics.RateLimitRejection.Inc()
		return nil, domain.ErrRateLimited
	}

	validated := make(map[string]any, len(raw))
	for questionID, value := range raw {
		coerced, err := s.schemas.Validate(questionID, value)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				s.metrics.AnswersDropped.Inc()
				log.Warn().Str("question_id", questionID).Str("reason", verr.Message).Msg("Dropping invalid answer")
				continue
			}
			return nil, err
		}
		validated[questionID] = coerced
	}

	survey, err := s.surveyRepo.Get(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey.UserID == nil || *survey.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if survey.Status != domain.StatusInProgress {
		return nil, domain.ErrInvalidState
	}

	if len(validated) == 0 {
		return survey, nil
	}

	updated := make(map[string]any, len(survey.Answers)+len(validated))
	for k, v := range survey.Answers {
		updated[k] = v
	}
	for k, v := range validated {
		updated[k] = v
	}

	if err := s.surveyRepo.UpdateAnswers(ctx, surveyID, updated); err != nil {
		return nil, fmt.Errorf("failed to save answers: %w", err)
	}

	survey.Answers = updated
	return survey, nil
}

// History lists the subject's completed surveys, newest first
func (s *SurveyService) History(ctx context.Context, userID uuid.UUID) ([]domain.Survey, error) {
	surveys, err := s.surveyRepo.ListCompletedFor(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey history: %w", err)
	}
	return surveys, nil
}
