package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/internal/auth/provider"
	"github.com/daint2git/auth-service/internal/auth/service"
	"github.com/daint2git/auth-service/pkg/constant"
)

const loginErrorRedirect = "/login?error=Server+Error"

type OAuthHandler struct {
	oauth  *service.OAuthService
	google provider.Provider
	github provider.Provider
	cfg    *config.Config
	logger *slog.Logger
}

func NewOAuthHandler(oauth *service.OAuthService, google, github provider.Provider, cfg *config.Config, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth:  oauth,
		google: google,
		github: github,
		cfg:    cfg,
		logger: logger,
	}
}

// GoogleLogin starts the Google flow: anti-forgery state plus a PKCE
// verifier, both parked in transient cookies until the callback.
func (h *OAuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state := uuid.NewString()
	verifier := uuid.NewString()

	setTransientCookie(c, constant.GoogleStateCookieName, state)
	setTransientCookie(c, constant.GoogleVerifierCookieName, verifier)

	return c.Redirect(h.google.AuthorizationURL(state, provider.PKCEChallenge(verifier)), fiber.StatusFound)
}

func (h *OAuthHandler) GithubLogin(c *fiber.Ctx) error {
	state := uuid.NewString()

	setTransientCookie(c, constant.GithubStateCookieName, state)

	return c.Redirect(h.github.AuthorizationURL(state, ""), fiber.StatusFound)
}

func (h *OAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	storedState := c.Cookies(constant.GoogleStateCookieName)
	verifier := c.Cookies(constant.GoogleVerifierCookieName)

	clearTransientCookie(c, constant.GoogleStateCookieName)
	clearTransientCookie(c, constant.GoogleVerifierCookieName)

	if code == "" || state == "" || storedState == "" || verifier == "" || state != storedState {
		return c.Redirect(loginErrorRedirect, fiber.StatusFound)
	}

	return h.completeLogin(c, h.google, code, verifier)
}

func (h *OAuthHandler) GithubCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	storedState := c.Cookies(constant.GithubStateCookieName)

	clearTransientCookie(c, constant.GithubStateCookieName)

	if code == "" || state == "" || storedState == "" || state != storedState {
		return c.Redirect(loginErrorRedirect, fiber.StatusFound)
	}

	return h.completeLogin(c, h.github, code, "")
}

// completeLogin finishes the callback for either provider. Every failure
// collapses into the same generic login redirect so nothing about the
// upstream exchange leaks to the browser.
func (h *OAuthHandler) completeLogin(c *fiber.Ctx, p provider.Provider, code, verifier string) error {
	result, err := h.oauth.HandleCallback(c.Context(), p, code, verifier)
	if err != nil {
		h.logger.Error("oauth callback failed", "provider", p.Name(), "error", err)
		return c.Redirect(loginErrorRedirect, fiber.StatusFound)
	}

	setSessionCookie(c, result.Session.ID, result.Session.Expires, h.cfg.IsProduction())

	if result.NewUser {
		return c.Redirect("/profile", fiber.StatusFound)
	}
	return c.Redirect("/dashboard", fiber.StatusFound)
}
