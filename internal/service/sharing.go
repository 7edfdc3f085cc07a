package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
)

// SharingService toggles public visibility on completed surveys
type SharingService struct {
	surveyRepo  domain.SurveyRepository
	userRepo    domain.UserRepository
	profileRepo domain.ProfileRepository
}

// NewSharingService creates a new sharing service
func NewSharingService(surveyRepo domain.SurveyRepository, userRepo domain.UserRepository, profileRepo domain.ProfileRepository) *SharingService {
	return &SharingService{surveyRepo: surveyRepo, userRepo: userRepo, profileRepo: profileRepo}
}

// MakePublic marks a completed survey as publicly visible and returns
// the subject's stable public slug. Idempotent: repeated calls return
// the same slug, assigned once at registration.
func (s *SharingService) MakePublic(ctx context.Context, surveyID, userID uuid.UUID) (string, error) {
	status, err := s.surveyRepo.GetStatusFor(ctx, surveyID, userID)
	if err != nil {
		return "", err
	}
	if status != domain.StatusCompleted {
		return "", domain.ErrInvalidState
	}

	if err := s.surveyRepo.UpdatePublic(ctx, surveyID, userID, true); err != nil {
		return "", fmt.Errorf("failed to make survey public: %w", err)
	}

	slug, err := s.userRepo.GetPublicSlug(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get public slug: %w", err)
	}

	// Best effort; the survey flag above is the one that matters.
	if err := s.userRepo.UpdatePublic(ctx, userID, true); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to update user public status")
	}

	log.Info().Str("survey_id", surveyID.String()).Str("slug", slug).Msg("Survey made public")
	return slug, nil
}

// OwnedStatus returns the survey's status when the subject owns it;
// ErrNotFound otherwise.
func (s *SharingService) OwnedStatus(ctx context.Context, surveyID, userID uuid.UUID) (domain.SurveyStatus, error) {
	return s.surveyRepo.GetStatusFor(ctx, surveyID, userID)
}

// PublicResults returns the profile for a publicly shared survey,
// looked up by the owner's slug.
func (s *SharingService) PublicResults(ctx context.Context, slug string) (*domain.Profile, error) {
	user, err := s.userRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to look up slug: %w", err)
	}
	if user == nil || !user.IsPublic {
		return nil, domain.ErrNotFound
	}

	surveys, err := s.surveyRepo.ListCompletedFor(ctx, user.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared survey: %w", err)
	}

	for _, survey := range surveys {
		if !survey.IsPublic {
			continue
		}
		profile, err := s.profileRepo.GetBySurvey(ctx, survey.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load shared profile: %w", err)
		}
		if profile != nil {
			return profile, nil
		}
	}
	return nil, domain.ErrNotFound
}
