// Package provider implements the OAuth2 authorization-code flows against
// Google and GitHub: authorization URL construction, code-for-token
// exchange, and profile retrieval.
package provider

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/daint2git/auth-service/internal/auth/domain"
)

// Token is the provider's token-endpoint response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the provider-agnostic view of a remote identity.
type Profile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

type Provider interface {
	Name() domain.Provider
	// RequiresPKCE reports whether the flow must carry a code challenge.
	RequiresPKCE() bool
	AuthorizationURL(state, codeChallenge string) string
	// Exchange trades an authorization code for tokens. codeVerifier is the
	// original PKCE verifier, empty for providers without PKCE.
	Exchange(ctx context.Context, code, codeVerifier string) (*Token, error)
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
}

// PKCEChallenge derives the S256 code challenge for a verifier: SHA-256,
// base64url, no padding.
func PKCEChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
