package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/provider"
	autherror "github.com/daint2git/auth-service/internal/errors"
)

// OAuthResult reports the outcome of a completed callback. NewUser steers
// the post-login redirect.
type OAuthResult struct {
	Session *domain.Session
	UserID  string
	NewUser bool
}

// OAuthService turns an authorization code into a local session: token
// exchange, profile fetch, identity resolution and account linking.
type OAuthService struct {
	repo     domain.UserRepository
	sessions *SessionService
	logger   *slog.Logger
}

func NewOAuthService(repo domain.UserRepository, sessions *SessionService, logger *slog.Logger) *OAuthService {
	return &OAuthService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *OAuthService) HandleCallback(ctx context.Context, p provider.Provider, code, codeVerifier string) (*OAuthResult, error) {
	token, err := p.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return nil, err
	}

	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	userID, newUser, err := s.resolveIdentity(ctx, p.Name(), profile, token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &OAuthResult{Session: session, UserID: userID, NewUser: newUser}, nil
}

// resolveIdentity maps a remote profile onto a local user, creating or
// linking records as needed, and returns the user id plus whether the user
// was created by this login.
func (s *OAuthService) resolveIdentity(ctx context.Context, providerName domain.Provider, profile *provider.Profile, token *provider.Token) (string, bool, error) {
	user, account, err := s.repo.GetByEmailWithAccount(ctx, profile.Email, providerName)
	if err != nil {
		return "", false, err
	}

	now := time.Now()

	if user == nil {
		verifiedAt := now // the provider vouches for the address
		newUser := &domain.User{
			ID:            uuid.NewString(),
			Email:         profile.Email,
			Name:          profile.Name,
			Image:         profile.AvatarURL,
			EmailVerified: &verifiedAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Create(ctx, newUser); err != nil {
			return "", false, err
		}
		if err := s.repo.CreateAccount(ctx, s.newAccount(newUser.ID, providerName, profile, token, now)); err != nil {
			return "", false, err
		}
		return newUser.ID, true, nil
	}

	if account == nil {
		if !s.shouldLinkAccount(user, profile) {
			s.logger.Warn("refused to link provider account", "provider", providerName, "user_id", user.ID)
			return "", false, autherror.ErrLinkRefused
		}
		if err := s.repo.CreateAccount(ctx, s.newAccount(user.ID, providerName, profile, token, now)); err != nil {
			return "", false, err
		}
		return user.ID, false, nil
	}

	account.ProviderAccountID = profile.ID
	account.AccessToken = token.AccessToken
	account.RefreshToken = token.RefreshToken
	account.TokenType = token.TokenType
	account.Scope = token.Scope
	account.ExpiresAt = tokenExpiry(token, now)
	account.IDToken = token.IDToken
	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return "", false, err
	}
	return user.ID, false, nil
}

// shouldLinkAccount decides whether a federated identity may attach to an
// existing local user. The current policy links on email match alone, which
// trusts the provider's ownership claim for addresses that also have a
// password account. Tighten here if that trust is withdrawn.
func (s *OAuthService) shouldLinkAccount(user *domain.User, profile *provider.Profile) bool {
	return true
}

func (s *OAuthService) newAccount(userID string, providerName domain.Provider, profile *provider.Profile, token *provider.Token, now time.Time) *domain.Account {
	return &domain.Account{
		ID:                uuid.NewString(),
		UserID:            userID,
		Provider:          providerName,
		ProviderAccountID: profile.ID,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		TokenType:         token.TokenType,
		Scope:             token.Scope,
		ExpiresAt:         tokenExpiry(token, now),
		IDToken:           token.IDToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func tokenExpiry(token *provider.Token, now time.Time) *int64 {
	if token.ExpiresIn <= 0 {
		return nil
	}
	at := now.Unix() + token.ExpiresIn
	return &at
}
