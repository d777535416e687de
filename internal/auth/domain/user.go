package domain

import "time"

// Provider identifies a federated identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGithub Provider = "github"
)

func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGithub
}

// User is the local identity. HashedPassword is empty for OAuth-only users;
// EmailVerified is nil until mailbox ownership has been proven.
type User struct {
	ID             string
	Email          string
	Name           string
	Image          string
	HashedPassword string
	EmailVerified  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Account links a provider identity to a User. One account per provider per
// user; tokens are refreshed in place on every federated login.
type Account struct {
	ID                string
	UserID            string
	Provider          Provider
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	TokenType         string
	Scope             string
	ExpiresAt         *int64
	IDToken           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Session is a bearer credential. The ID itself is the token; validity means
// Expires has not passed at lookup time.
type Session struct {
	ID      string
	UserID  string
	Expires time.Time
}
