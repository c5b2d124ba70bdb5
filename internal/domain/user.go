package domain

import (
	"context"
	"time"
)

// User is an account record in the auth layer. The generation pipeline only
// ever sees the ID; everything else stays behind the repository.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	Locale        string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRepository persists and retrieves user records keyed by unique
// email/username.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, emailOrUsername string) (*User, error)
}
