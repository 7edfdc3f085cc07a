package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSurveyService(surveyRepo *MockSurveyRepository, pending *MockPendingBufferStore, limiter *MockWriteLimiter) *SurveyService {
	return NewSurveyService(
		surveyRepo,
		pending,
		limiter,
		domain.NewSchemaRegistry(),
		telemetry.NewNop(),
		20,
	)
}

func inProgressSurvey(userID uuid.UUID, answers map[string]any) *domain.Survey {
	now := time.Now()
	return &domain.Survey{
		ID:        uuid.New(),
		UserID:    &userID,
		Status:    domain.StatusInProgress,
		Answers:   answers,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSurveyService_ResolveSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("merge gives pending answers precedence", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		pending := new(MockPendingBufferStore)

		existing := inProgressSurvey(userID, map[string]any{"a": float64(1), "b": float64(2)})
		surveyRepo.On("GetInProgressFor", ctx, userID).Return(existing, nil)
		pending.On("Get", ctx, "buf-1").Return(&domain.PendingProgress{
			Answers: map[string]any{"b": float64(3), "c": float64(4)},
			Step:    7,
		}, nil)
		surveyRepo.On("UpdateAnswers", ctx, existing.ID, map[string]any{
			"a": float64(1), "b": float64(3), "c": float64(4),
		}).Return(nil)
		pending.On("Delete", ctx, "buf-1").Return(nil)

		svc := newSurveyService(surveyRepo, pending, new(MockWriteLimiter))
		result, err := svc.ResolveSession(ctx, userID, "buf-1")

		assert.NoError(t, err)
		assert.True(t, result.Resumed)
		assert.Equal(t, 7, result.Step)
		assert.Equal(t, float64(3), result.Survey.Answers["b"])
		assert.Equal(t, float64(1), result.Survey.Answers["a"])
		surveyRepo.AssertExpectations(t)
		pending.AssertExpectations(t)
	})

	t.Run("pending answers seed a new survey", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		pending := new(MockPendingBufferStore)

		seed := map[string]any{"career": float64(8)}
		surveyRepo.On("GetInProgressFor", ctx, userID).Return(nil, nil)
		pending.On("Get", ctx, "buf-2").Return(&domain.PendingProgress{Answers: seed, Step: 2}, nil)
		surveyRepo.On("Insert", ctx, userID, seed).Return(inProgressSurvey(userID, seed), nil)
		pending.On("Delete", ctx, "buf-2").Return(nil)

		svc := newSurveyService(surveyRepo, pending, new(MockWriteLimiter))
		result, err := svc.ResolveSession(ctx, userID, "buf-2")

		assert.NoError(t, err)
		assert.True(t, result.Resumed)
		assert.Equal(t, 2, result.Step)
		pending.AssertExpectations(t)
	})

	t.Run("buffer untouched when persist fails", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		pending := new(MockPendingBufferStore)

		existing := inProgressSurvey(userID, map[string]any{})
		surveyRepo.On("GetInProgressFor", ctx, userID).Return(existing, nil)
		pending.On("Get", ctx, "buf-3").Return(&domain.PendingProgress{
			Answers: map[string]any{"x": float64(1)},
		}, nil)
		surveyRepo.On("UpdateAnswers", ctx, existing.ID, mock.Anything).Return(assert.AnError)

		svc := newSurveyService(surveyRepo, pending, new(MockWriteLimiter))
		_, err := svc.ResolveSession(ctx, userID, "buf-3")

		assert.Error(t, err)
		pending.AssertNotCalled(t, "Delete", ctx, "buf-3")
	})

	t.Run("resume returns same session twice", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		pending := new(MockPendingBufferStore)

		existing := inProgressSurvey(userID, map[string]any{})
		surveyRepo.On("GetInProgressFor", ctx, userID).Return(existing, nil)
		pending.On("Get", ctx, "buf-4").Return(nil, nil)

		svc := newSurveyService(surveyRepo, pending, new(MockWriteLimiter))

		first, err := svc.ResolveSession(ctx, userID, "buf-4")
		assert.NoError(t, err)
		second, err := svc.ResolveSession(ctx, userID, "buf-4")
		assert.NoError(t, err)

		assert.Equal(t, first.Survey.ID, second.Survey.ID)
		assert.True(t, first.Resumed)
		assert.True(t, second.Resumed)
		surveyRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fresh session when nothing exists", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		pending := new(MockPendingBufferStore)

		created := inProgressSurvey(userID, map[string]any{})
		surveyRepo.On("GetInProgressFor", ctx, userID).Return(nil, nil)
		surveyRepo.On("Insert", ctx, userID, map[string]any(nil)).Return(created, nil)

		svc := newSurveyService(surveyRepo, pending, new(MockWriteLimiter))
		result, err := svc.ResolveSession(ctx, userID, "")

		assert.NoError(t, err)
		assert.False(t, result.Resumed)
		assert.Equal(t, created.ID, result.Survey.ID)
		pending.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestSurveyService_RecordAnswers(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("budget exhaustion rejects the sixth write untouched", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		limiter := new(MockWriteLimiter)
		survey := inProgressSurvey(userID, map[string]any{})

		limiter.On("Allow", ctx, userID.String()).Return(true, 0, time.Now(), nil).Times(5)
		limiter.On("Allow", ctx, userID.String()).Return(false, 0, time.Now(), nil).Once()
		surveyRepo.On("Get", ctx, survey.ID).Return(survey, nil)
		surveyRepo.On("UpdateAnswers", ctx, survey.ID, mock.Anything).Return(nil)

		svc := newSurveyService(surveyRepo, new(MockPendingBufferStore), limiter)

		for i := 0; i < 5; i++ {
			_, err := svc.RecordAnswer(ctx, userID, survey.ID, "career", float64(i))
			assert.NoError(t, err)
		}

		_, err := svc.RecordAnswer(ctx, userID, survey.ID, "career", float64(9))
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		surveyRepo.AssertNumberOfCalls(t, "UpdateAnswers", 5)
	})

	t.Run("invalid answer is dropped, siblings proceed", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		limiter := new(MockWriteLimiter)
		survey := inProgressSurvey(userID, map[string]any{})

		limiter.On("Allow", ctx, userID.String()).Return(true, 4, time.Now(), nil)
		surveyRepo.On("Get", ctx, survey.ID).Return(survey, nil)
		surveyRepo.On("UpdateAnswers", ctx, survey.ID, map[string]any{
			"career": float64(8),
		}).Return(nil)

		svc := newSurveyService(surveyRepo, new(MockPendingBufferStore), limiter)
		updated, err := svc.RecordAnswers(ctx, userID, survey.ID, map[string]any{
			"career": float64(8),
			"health": float64(42), // out of the 0-10 default bounds
		})

		assert.NoError(t, err)
		assert.Equal(t, float64(8), updated.Answers["career"])
		_, present := updated.Answers["health"]
		assert.False(t, present)
		surveyRepo.AssertExpectations(t)
	})

	t.Run("all answers invalid skips the write", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		limiter := new(MockWriteLimiter)
		survey := inProgressSurvey(userID, map[string]any{})

		limiter.On("Allow", ctx, userID.String()).Return(true, 4, time.Now(), nil)
		surveyRepo.On("Get", ctx, survey.ID).Return(survey, nil)

		svc := newSurveyService(surveyRepo, new(MockPendingBufferStore), limiter)
		_, err := svc.RecordAnswers(ctx, userID, survey.ID, map[string]any{
			"career": float64(99),
		})

		assert.NoError(t, err)
		surveyRepo.AssertNotCalled(t, "UpdateAnswers", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed survey rejects writes", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		limiter := new(MockWriteLimiter)

		survey := inProgressSurvey(userID, map[string]any{})
		survey.Status = domain.StatusCompleted

		limiter.On("Allow", ctx, userID.String()).Return(true, 4, time.Now(), nil)
		surveyRepo.On("Get", ctx, survey.ID).Return(survey, nil)

		svc := newSurveyService(surveyRepo, new(MockPendingBufferStore), limiter)
		_, err := svc.RecordAnswers(ctx, userID, survey.ID, map[string]any{"career": float64(5)})

		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("someone else's survey is not found", func(t *testing.T) {
		surveyRepo := new(MockSurveyRepository)
		limiter := new(MockWriteLimiter)

		otherUser := uuid.New()
		survey := inProgressSurvey(otherUser, map[string]any{})

		limiter.On("Allow", ctx, userID.String()).Return(true, 4, time.Now(), nil)
		surveyRepo.On("Get", ctx, survey.ID).Return(survey, nil)

		svc := newSurveyService(surveyRepo, new(MockPendingBufferStore), limiter)
		_, err := svc.RecordAnswers(ctx, userID, survey.ID, map[string]any{"career": float64(5)})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSurveyService_RecordPending(t *testing.T) {
	ctx := context.Background()

	t.Run("appends into existing buffer", func(t *testing.T) {
		pending := new(MockPendingBufferStore)
		step := 3

		pending.On("Get", ctx, "buf").Return(&domain.PendingProgress{
			Answers: map[string]any{"career": float64(5)},
			Step:    1,
		}, nil)
		pending.On("Save", ctx, "buf", &domain.PendingProgress{
			Answers: map[string]any{"career": float64(5), "health": float64(7)},
			Step:    3,
		}).Return(nil)

		svc := newSurveyService(new(MockSurveyRepository), pending, new(MockWriteLimiter))
		err := svc.RecordPending(ctx, "buf", "health", float64(7), &step)

		assert.NoError(t, err)
		pending.AssertExpectations(t)
	})

	t.Run("starts a fresh buffer", func(t *testing.T) {
		pending := new(MockPendingBufferStore)

		pending.On("Get", ctx, "buf").Return(nil, nil)
		pending.On("Save", ctx, "buf", &domain.PendingProgress{
			Answers: map[string]any{"career": float64(2)},
		}).Return(nil)

		svc := newSurveyService(new(MockSurveyRepository), pending, new(MockWriteLimiter))
		err := svc.RecordPending(ctx, "buf", "career", float64(2), nil)

		assert.NoError(t, err)
		pending.AssertExpectations(t)
	})
}
