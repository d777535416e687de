package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/dto"
	autherror "github.com/daint2git/auth-service/internal/errors"
)

const bcryptCost = 10

type UserService struct {
	repo         domain.UserRepository
	sessions     *SessionService
	verification *VerificationService
	logger       *slog.Logger
}

func NewUserService(repo domain.UserRepository, sessions *SessionService, verification *VerificationService, logger *slog.Logger) *UserService {
	return &UserService{
		repo:         repo,
		sessions:     sessions,
		verification: verification,
		logger:       logger,
	}
}

// Register creates an unverified user and dispatches the first verification
// mail. When the mail cannot be sent the user row is deleted again so no
// account is left behind that could never be verified.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (string, error) {
	existingUser, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return "", err
	}
	if existingUser != nil {
		return "", autherror.ErrEmailAlreadyInUse
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return "", err
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          input.Email,
		Name:           input.Name,
		HashedPassword: string(hashedPassword),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return "", err
	}

	verificationID, err := s.verification.Send(ctx, input.Email)
	if err != nil {
		s.logger.Error("verification mail failed during registration", "email", input.Email, "error", err)
		if delErr := s.repo.DeleteByEmail(ctx, input.Email); delErr != nil {
			s.logger.Error("failed to roll back user after mail failure", "email", input.Email, "error", delErr)
		}
		return "", autherror.ErrEmailSendFailed
	}

	return verificationID, nil
}

// Login verifies credentials and issues a session. Verification status is
// checked before the password, mirroring the original handler; the
// registered-but-unverified response is therefore observable without a
// valid password.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*domain.Session, error) {
	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrInvalidCredentials
	}

	if user.EmailVerified == nil {
		return nil, autherror.ErrEmailUnverified
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)) != nil {
		return nil, autherror.ErrInvalidCredentials
	}

	return s.sessions.Create(ctx, user.ID)
}

// UpdateProfile changes the display name of the session's owner.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name string) error {
	return s.repo.UpdateName(ctx, userID, name)
}
