package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daint2git/auth-service/internal/auth/domain"
)

// SessionService manages opaque bearer sessions. The session id doubles as
// the token handed to the browser; the token space is large enough that
// collisions are not handled.
type SessionService struct {
	repo   domain.UserRepository
	expiry time.Duration
}

func NewSessionService(repo domain.UserRepository, expiryDays int) *SessionService {
	return &SessionService{
		repo:   repo,
		expiry: time.Duration(expiryDays) * 24 * time.Hour,
	}
}

func (s *SessionService) Create(ctx context.Context, userID string) (*domain.Session, error) {
	session := &domain.Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		Expires: time.Now().Add(s.expiry),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Get resolves a non-expired session to its owning user. Absent and expired
// tokens look identical to the caller.
func (s *SessionService) Get(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	return s.repo.GetSessionWithUser(ctx, token)
}

// Delete removes the session row. Deleting an unknown token is not an error.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}
