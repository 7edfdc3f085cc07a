package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/scoring"
	"github.com/snapshotlabs/snapshot-api/internal/telemetry"
)

// CompletionOutcome reports how a completion attempt resolved. Every
// outcome except a propagated error renders the same success state to
// the respondent: duplicate attempts are never user-visible failures.
type CompletionOutcome string

const (
	// OutcomeCompleted: this attempt performed the transition.
	OutcomeCompleted CompletionOutcome = "completed"
	// OutcomeAlreadyCompleted: the store said the survey was already
	// completed; successful no-op.
	OutcomeAlreadyCompleted CompletionOutcome = "already_completed"
	// OutcomeInFlight: another attempt in this process holds the
	// marker; successful no-op.
	OutcomeInFlight CompletionOutcome = "completion_in_progress"
)

// CompletionService transitions a survey to completed exactly once
// and materializes its profile at most once.
//
// Two guards stack: a process-local in-flight marker short-circuits
// duplicate calls cheaply, and the store provides the real mutual
// exclusion through a conditional status write plus an insert that
// is a no-op when the profile already exists. Two processes racing
// past their own markers still produce exactly one profile.
type CompletionService struct {
	surveyRepo  domain.SurveyRepository
	profileRepo domain.ProfileRepository
	metrics     *telemetry.Metrics

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewCompletionService creates a new completion service
func NewCompletionService(
	surveyRepo domain.SurveyRepository,
	profileRepo domain.ProfileRepository,
	metrics *telemetry.Metrics,
) *CompletionService {
	return &CompletionService{
		surveyRepo:  surveyRepo,
		profileRepo: profileRepo,
		metrics:     metrics,
		inFlight:    make(map[uuid.UUID]struct{}),
	}
}

// Complete transitions the survey to completed. Safe to call more
// than once, concurrently or sequentially; the caller cannot tell a
// fresh completion from an idempotent no-op by error value.
//
// fallbackAnswers is the caller's in-memory copy of the answer set,
// used for materialization only if the authoritative read comes back
// without answers.
func (s *CompletionService) Complete(ctx context.Context, surveyID, userID uuid.UUID, fallbackAnswers map[string]any) (CompletionOutcome, error) {
	if !s.markInFlight(surveyID) {
		return OutcomeInFlight, nil
	}
	// Cleared on every exit path so a timed-out or failed attempt
	// never poisons the next one.
	defer s.clearInFlight(surveyID)

	// Re-read status from the store, not from any cached session: a
	// retried request's original call may already have completed it.
	status, err := s.surveyRepo.GetStatusFor(ctx, surveyID, userID)
	if err != nil {
		s.metrics.CompletionFailure.Inc()
		return "", fmt.Errorf("failed to check survey status: %w", err)
	}
	if status == domain.StatusCompleted {
		s.metrics.CompletionNoop.Inc()
		log.Info().Str("survey_id", surveyID.String()).Msg("Survey already completed, skipping")
		return OutcomeAlreadyCompleted, nil
	}

	// Independent guard: status and profile existence are not assumed
	// to be transactionally linked. A prior attempt may have written
	// one but not the other.
	existing, err := s.profileRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		s.metrics.CompletionFailure.Inc()
		return "", fmt.Errorf("failed to check existing profile: %w", err)
	}

	// Status reflects "the respondent finished" and is written no
	// matter what happens to the scoring pipeline below.
	transitioned, err := s.surveyRepo.UpdateStatus(ctx, surveyID, userID, domain.StatusCompleted)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		s.metrics.CompletionFailure.Inc()
		return "", fmt.Errorf("failed to complete survey: %w", err)
	}
	if !transitioned {
		// Another writer won the conditional write between our read
		// and this update; their materialization (or the insert's
		// conflict clause) covers the profile.
		s.metrics.CompletionNoop.Inc()
		log.Info().Str("survey_id", surveyID.String()).Msg("Survey completed concurrently by another attempt")
		return OutcomeAlreadyCompleted, nil
	}

	if existing == nil {
		s.materialize(ctx, surveyID, fallbackAnswers)
	} else {
		log.Info().Str("survey_id", surveyID.String()).Msg("Profile already exists, skipping materialization")
	}

	s.metrics.CompletionSuccess.Inc()
	log.Info().Str("survey_id", surveyID.String()).Msg("Survey completed")
	return OutcomeCompleted, nil
}

// materialize derives and inserts the profile. Failures are logged
// and counted but never propagated: the respondent finished their
// survey whether or not scoring succeeded, and the insert can be
// retried by a later attempt.
func (s *CompletionService) materialize(ctx context.Context, surveyID uuid.UUID, fallbackAnswers map[string]any) {
	answers := fallbackAnswers
	if fresh, err := s.surveyRepo.Get(ctx, surveyID); err == nil && len(fresh.Answers) > 0 {
		answers = fresh.Answers
	} else if err != nil {
		log.Warn().Err(err).Str("survey_id", surveyID.String()).Msg("Falling back to caller answers for materialization")
	}

	profile := scoring.Materialize(answers)
	profile.ID = uuid.New()
	profile.SurveyID = surveyID
	profile.CreatedAt = time.Now()

	inserted, err := s.profileRepo.Insert(ctx, profile)
	if err != nil {
		s.metrics.MaterializationFailure.Inc()
		log.Error().Err(err).Str("survey_id", surveyID.String()).Msg("Failed to create profile")
		return
	}
	if !inserted {
		log.Info().Str("survey_id", surveyID.String()).Msg("Profile already created by concurrent attempt")
		return
	}
	log.Debug().Str("survey_id", surveyID.String()).Msg("Profile created")
}

func (s *CompletionService) markInFlight(surveyID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[surveyID]; busy {
		return false
	}
	s.inFlight[surveyID] = struct{}{}
	return true
}

func (s *CompletionService) clearInFlight(surveyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, surveyID)
}
