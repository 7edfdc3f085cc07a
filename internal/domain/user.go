package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated respondent
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PublicSlug   string    `json:"public_slug"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserCreate is the registration input
type UserCreate struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UserLogin is the login input
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair holds the issued access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the persistence contract for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySlug(ctx context.Context, slug string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// GetPublicSlug returns the stable slug assigned at registration.
	GetPublicSlug(ctx context.Context, id uuid.UUID) (string, error)
	UpdatePublic(ctx context.Context, id uuid.UUID, isPublic bool) error
}
