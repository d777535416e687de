package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/internal/auth/domain"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://www.googleapis.com/oauth2/v4/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	googleScope = "openid email profile"
)

type Google struct {
	cfg         config.OAuthProviderConfig
	authURL     string
	tokenURL    string
	userinfoURL string
	client      *http.Client
}

type GoogleOption func(*Google)

// WithGoogleEndpoints overrides the provider endpoints. Used in tests.
func WithGoogleEndpoints(authURL, tokenURL, userinfoURL string) GoogleOption {
	return func(g *Google) {
		g.authURL = authURL
		g.tokenURL = tokenURL
		g.userinfoURL = userinfoURL
	}
}

func NewGoogle(cfg config.OAuthProviderConfig, opts ...GoogleOption) *Google {
	g := &Google{
		cfg:         cfg,
		authURL:     googleAuthURL,
		tokenURL:    googleTokenURL,
		userinfoURL: googleUserinfoURL,
		client:      newHTTPClient(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Google) Name() domain.Provider { return domain.ProviderGoogle }

func (g *Google) RequiresPKCE() bool { return true }

func (g *Google) AuthorizationURL(state, codeChallenge string) string {
	query := url.Values{
		"scope":                 {googleScope},
		"response_type":         {"code"},
		"client_id":             {g.cfg.ClientID},
		"redirect_uri":          {g.cfg.CallbackURL},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return g.authURL + "?" + query.Encode()
}

// Exchange posts the authorization code together with the original PKCE
// verifier (not the challenge) to the token endpoint.
func (g *Google) Exchange(ctx context.Context, code, codeVerifier string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {g.cfg.ClientID},
		"client_secret": {g.cfg.ClientSecret},
		"redirect_uri":  {g.cfg.CallbackURL},
		"code":          {code},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google token exchange: unexpected status %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("google token exchange: decode response: %w", err)
	}

	return &token, nil
}

type googleUserinfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: unexpected status %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo: decode response: %w", err)
	}

	profile := &Profile{
		ID:            info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}

	if profile.Email == "" && token.IDToken != "" {
		fillFromIDToken(profile, token.IDToken)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("google userinfo: no email in profile")
	}

	return profile, nil
}

// fillFromIDToken recovers missing profile fields from the id_token claims.
// The token was just received over TLS from the token endpoint, so the
// signature is not re-verified here.
func fillFromIDToken(profile *Profile, idToken string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return
	}

	if profile.Email == "" {
		if email, ok := claims["email"].(string); ok {
			profile.Email = email
		}
		if verified, ok := claims["email_verified"].(bool); ok {
			profile.EmailVerified = verified
		}
	}
	if profile.ID == "" {
		if sub, ok := claims["sub"].(string); ok {
			profile.ID = sub
		}
	}
	if profile.Name == "" {
		if name, ok := claims["name"].(string); ok {
			profile.Name = name
		}
	}
	if profile.AvatarURL == "" {
		if picture, ok := claims["picture"].(string); ok {
			profile.AvatarURL = picture
		}
	}
}
