package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/internal/auth/dto"
	"github.com/daint2git/auth-service/internal/auth/service"
	autherror "github.com/daint2git/auth-service/internal/errors"
	"github.com/daint2git/auth-service/pkg/constant"
)

type AuthHandler struct {
	userService    *service.UserService
	sessionService *service.SessionService
	cfg            *config.Config
	logger         *slog.Logger
}

func NewAuthHandler(userService *service.UserService, sessionService *service.SessionService, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		cfg:            cfg,
		logger:         logger,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}

	verificationID, err := h.userService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrEmailAlreadyInUse):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User already exists",
			})
		case errors.Is(err, autherror.ErrEmailSendFailed):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "email_error",
				"message": "Error while sending email",
			})
		default:
			h.logger.Error("register failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "server_error",
				"message": "Server Error",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"id": verificationID},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}
	if input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}

	session, err := h.userService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "auth_error",
				"message": "Unauthorized",
			})
		case errors.Is(err, autherror.ErrEmailUnverified):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "email_unverified",
				"message": "Please verify your email",
			})
		default:
			h.logger.Error("login failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "server_error",
				"message": "Server Error",
			})
		}
	}

	setSessionCookie(c, session.ID, session.Expires, h.cfg.IsProduction())

	return c.SendStatus(fiber.StatusOK)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(constant.SessionCookieName)
	if token == "" {
		return c.Redirect("/", fiber.StatusFound)
	}

	if err := h.sessionService.Delete(c.Context(), token); err != nil {
		h.logger.Error("logout failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "server_error",
			"message": "Internal server error. Try again later",
		})
	}

	clearSessionCookie(c, h.cfg.IsProduction())

	return c.Redirect("/", fiber.StatusFound)
}

// Profile updates the display name of the authenticated user.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}

	token := c.Cookies(constant.SessionCookieName)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "authentication_error",
			"message": "Please login",
		})
	}

	session, user, err := h.sessionService.Get(c.Context(), token)
	if err != nil {
		h.logger.Error("session lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "server_error",
			"message": "Internal server error. Try again later",
		})
	}
	if session == nil {
		clearSessionCookie(c, h.cfg.IsProduction())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "authorization_error",
			"message": "Unauthorized",
		})
	}

	if err := h.userService.UpdateProfile(c.Context(), user.ID, input.Name); err != nil {
		h.logger.Error("profile update failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "server_error",
			"message": "Internal server error. Try again later",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Updated profile successfully",
	})
}
