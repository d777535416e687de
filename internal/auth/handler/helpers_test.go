package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/handler"
	"github.com/daint2git/auth-service/internal/auth/provider"
	"github.com/daint2git/auth-service/internal/auth/service"
	"github.com/daint2git/auth-service/internal/auth/store"
	"github.com/daint2git/auth-service/internal/mocks"
)

// stubProvider satisfies provider.Provider without any network traffic.
type stubProvider struct {
	name    domain.Provider
	token   *provider.Token
	profile *provider.Profile
	exchErr error
}

func (s *stubProvider) Name() domain.Provider { return s.name }

func (s *stubProvider) RequiresPKCE() bool { return s.name == domain.ProviderGoogle }

func (s *stubProvider) AuthorizationURL(state, codeChallenge string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, code, _ string) (*provider.Token, error) {
	if s.exchErr != nil {
		return nil, s.exchErr
	}
	return s.token, nil
}

func (s *stubProvider) FetchProfile(_ context.Context, _ *provider.Token) (*provider.Profile, error) {
	return s.profile, nil
}

type testApp struct {
	app        *fiber.App
	mockRepo   *mocks.MockUserRepository
	mockMailer *mocks.MockMailer
	mr         *miniredis.Miniredis
	google     *stubProvider
	github     *stubProvider
}

func newTestApp(t *testing.T, ctrl *gomock.Controller) *testApp {
	t.Helper()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Env: "development", SessionExpiryDays: 7}

	sessions := service.NewSessionService(mockRepo, cfg.SessionExpiryDays)
	verification := service.NewVerificationService(mockRepo, store.New(rdb), mockMailer, logger)
	users := service.NewUserService(mockRepo, sessions, verification, logger)
	oauth := service.NewOAuthService(mockRepo, sessions, logger)

	google := &stubProvider{
		name:  domain.ProviderGoogle,
		token: &provider.Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 3600},
		profile: &provider.Profile{
			ID:            "google-sub-1",
			Email:         "oauth@example.com",
			EmailVerified: true,
			Name:          "OAuth User",
		},
	}
	github := &stubProvider{
		name:  domain.ProviderGithub,
		token: &provider.Token{AccessToken: "gho_access", RefreshToken: "gho_access"},
		profile: &provider.Profile{
			ID:            "12345",
			Email:         "octo@example.com",
			EmailVerified: true,
			Name:          "Octo Cat",
		},
	}

	app := fiber.New()
	handler.RegisterRoutes(app,
		handler.NewAuthHandler(users, sessions, cfg, logger),
		handler.NewVerificationHandler(verification, logger),
		handler.NewOAuthHandler(oauth, google, github, cfg, logger),
	)

	return &testApp{
		app:        app,
		mockRepo:   mockRepo,
		mockMailer: mockMailer,
		mr:         mr,
		google:     google,
		github:     github,
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// cookieValue returns the value of a Set-Cookie header by name, or "" when
// the response does not set it.
func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func httpCookie(name, value string) *http.Cookie {
	return &http.Cookie{Name: name, Value: value}
}

func sessionCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
