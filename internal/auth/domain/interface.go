package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/daint2git/auth-service/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserRepository is the persistence port for users, provider accounts and
// sessions. Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailWithAccount(ctx context.Context, email string, provider Provider) (*User, *Account, error)
	Create(ctx context.Context, user *User) error
	DeleteByEmail(ctx context.Context, email string) error
	MarkEmailVerified(ctx context.Context, email string, verifiedAt time.Time) error
	UpdateName(ctx context.Context, userID, name string) error

	CreateAccount(ctx context.Context, account *Account) error
	UpdateAccount(ctx context.Context, account *Account) error

	CreateSession(ctx context.Context, session *Session) error
	GetSessionWithUser(ctx context.Context, token string) (*Session, *User, error)
	DeleteSession(ctx context.Context, token string) error
}
