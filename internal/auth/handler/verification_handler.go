package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/daint2git/auth-service/internal/auth/dto"
	"github.com/daint2git/auth-service/internal/auth/service"
	autherror "github.com/daint2git/auth-service/internal/errors"
)

type VerificationHandler struct {
	verification *service.VerificationService
	logger       *slog.Logger
}

func NewVerificationHandler(verification *service.VerificationService, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{
		verification: verification,
		logger:       logger,
	}
}

func (h *VerificationHandler) SendMail(c *fiber.Ctx) error {
	var input dto.SendVerificationInput
	if err := c.BodyParser(&input); err != nil || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}

	verificationID, err := h.verification.Resend(c.Context(), input.Email)
	if err != nil {
		var cooldown *autherror.ResendCooldownError
		switch {
		case errors.Is(err, autherror.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "user_not_exist",
				"message": "User with this email doesn't exist",
			})
		case errors.Is(err, autherror.ErrEmailAlreadyVerified):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "email_already_verified",
				"message": "User with this email has been already verified. You can log in",
			})
		case errors.Is(err, autherror.ErrEmailSendLimit):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limit",
				"message": "Please wait for 24 hrs before sending new mail request",
			})
		case errors.As(err, &cooldown):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "resend_limit",
				"message": fmt.Sprintf("Please wait for %d minutes before generating new request for mail", cooldown.WaitMinutes),
			})
		default:
			h.logger.Error("verification mail failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "server_error",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{"verificationId": verificationID},
	})
}

func (h *VerificationHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyEmailInput
	if err := c.BodyParser(&input); err != nil || input.ID == "" || input.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Missing required fields",
		})
	}

	err := h.verification.Verify(c.Context(), input.ID, input.Code, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrRateLimited):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limit",
				"message": "Too many requests. Please try again later.",
			})
		case errors.Is(err, autherror.ErrCodeExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "code_expired",
				"message": "Verification code expired. Please generate a new verification code.",
			})
		case errors.Is(err, autherror.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_code",
				"message": "Please check your entered code",
			})
		default:
			h.logger.Error("verify email failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "server_error",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data":    fiber.Map{"emailVerified": true},
		"message": "Email Verified",
	})
}
