package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/internal/auth/domain"
)

const (
	githubAuthURL  = "https://github.com/login/oauth/authorize"
	githubTokenURL = "https://github.com/login/oauth/access_token"
	githubAPIURL   = "https://api.github.com"

	githubScope = "user:email"
)

type Github struct {
	cfg      config.OAuthProviderConfig
	authURL  string
	tokenURL string
	apiURL   string
	client   *http.Client
}

type GithubOption func(*Github)

// WithGithubEndpoints overrides the provider endpoints. Used in tests.
func WithGithubEndpoints(authURL, tokenURL, apiURL string) GithubOption {
	return func(g *Github) {
		g.authURL = authURL
		g.tokenURL = tokenURL
		g.apiURL = apiURL
	}
}

func NewGithub(cfg config.OAuthProviderConfig, opts ...GithubOption) *Github {
	g := &Github{
		cfg:      cfg,
		authURL:  githubAuthURL,
		tokenURL: githubTokenURL,
		apiURL:   githubAPIURL,
		client:   newHTTPClient(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Github) Name() domain.Provider { return domain.ProviderGithub }

func (g *Github) RequiresPKCE() bool { return false }

func (g *Github) AuthorizationURL(state, _ string) string {
	query := url.Values{
		"scope":         {githubScope},
		"response_type": {"code"},
		"client_id":     {g.cfg.ClientID},
		"redirect_uri":  {g.cfg.CallbackURL},
		"state":         {state},
	}
	return g.authURL + "?" + query.Encode()
}

func (g *Github) Exchange(ctx context.Context, code, _ string) (*Token, error) {
	query := url.Values{
		"client_id":     {g.cfg.ClientID},
		"client_secret": {g.cfg.ClientSecret},
		"code":          {code},
		"scope":         {githubScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github token exchange: unexpected status %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("github token exchange: decode response: %w", err)
	}

	// GitHub issues no refresh token; the access token is stored in its
	// place so the account record keeps a non-empty credential.
	if token.RefreshToken == "" {
		token.RefreshToken = token.AccessToken
	}

	return &token, nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile reads the user document and the secondary emails listing;
// GitHub's primary profile does not expose the account email.
func (g *Github) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	var user githubUser
	if err := g.getJSON(ctx, g.apiURL+"/user", token.AccessToken, &user); err != nil {
		return nil, err
	}

	var emails []githubEmail
	if err := g.getJSON(ctx, g.apiURL+"/user/emails", token.AccessToken, &emails); err != nil {
		return nil, err
	}

	email, ok := pickEmail(emails)
	if !ok {
		return nil, fmt.Errorf("github profile: no email available")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		ID:            strconv.FormatInt(user.ID, 10),
		Email:         email.Email,
		EmailVerified: email.Verified,
		Name:          name,
		AvatarURL:     user.AvatarURL,
	}, nil
}

// pickEmail selects the address to trust: primary+verified beats verified
// beats primary beats the first entry.
func pickEmail(emails []githubEmail) (githubEmail, bool) {
	if len(emails) == 0 {
		return githubEmail{}, false
	}

	var verified, primary *githubEmail
	for i := range emails {
		e := &emails[i]
		if e.Primary && e.Verified {
			return *e, true
		}
		if e.Verified && verified == nil {
			verified = e
		}
		if e.Primary && primary == nil {
			primary = e
		}
	}

	if verified != nil {
		return *verified, true
	}
	if primary != nil {
		return *primary, true
	}
	return emails[0], true
}

func (g *Github) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("github api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api: unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github api: decode response: %w", err)
	}

	return nil
}
