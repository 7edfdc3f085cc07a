package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockSurveyRepository mocks the SurveyRepository interface
type MockSurveyRepository struct {
	mock.Mock
}

func (m *MockSurveyRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Survey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) GetStatusFor(ctx context.Context, id, userID uuid.UUID) (domain.SurveyStatus, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(domain.SurveyStatus), args.Error(1)
}

func (m *MockSurveyRepository) GetInProgressFor(ctx context.Context, userID uuid.UUID) (*domain.Survey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) Insert(ctx context.Context, userID uuid.UUID, answers map[string]any) (*domain.Survey, error) {
	args := m.Called(ctx, userID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Survey), args.Error(1)
}

func (m *MockSurveyRepository) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]any) error {
	args := m.Called(ctx, id, answers)
	return args.Error(0)
}

func (m *MockSurveyRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status domain.SurveyStatus) (bool, error) {
	args := m.Called(ctx, id, userID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockSurveyRepository) UpdatePublic(ctx context.Context, id, userID uuid.UUID, isPublic bool) error {
	args := m.Called(ctx, id, userID, isPublic)
	return args.Error(0)
}

func (m *MockSurveyRepository) ListCompletedFor(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Survey, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Survey), args.Error(1)
}

// MockProfileRepository mocks the ProfileRepository interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetBySurvey(ctx context.Context, surveyID uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) Insert(ctx context.Context, profile *domain.Profile) (bool, error) {
	args := m.Called(ctx, profile)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetBySlug(ctx context.Context, slug string) (*domain.User, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetPublicSlug(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) UpdatePublic(ctx context.Context, id uuid.UUID, isPublic bool) error {
	args := m.Called(ctx, id, isPublic)
	return args.Error(0)
}

// MockPendingBufferStore mocks the PendingBufferStore interface
type MockPendingBufferStore struct {
	mock.Mock
}

func (m *MockPendingBufferStore) Get(ctx context.Context, bufferID string) (*domain.PendingProgress, error) {
	args := m.Called(ctx, bufferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingProgress), args.Error(1)
}

func (m *MockPendingBufferStore) Save(ctx context.Context, bufferID string, progress *domain.PendingProgress) error {
	args := m.Called(ctx, bufferID, progress)
	return args.Error(0)
}

func (m *MockPendingBufferStore) Delete(ctx context.Context, bufferID string) error {
	args := m.Called(ctx, bufferID)
	return args.Error(0)
}

// MockWriteLimiter mocks the WriteLimiter interface
type MockWriteLimiter struct {
	mock.Mock
}

func (m *MockWriteLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Int(1), args.Get(2).(time.Time), args.Error(3)
}
