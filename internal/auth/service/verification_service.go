package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/store"
	autherror "github.com/daint2git/auth-service/internal/errors"
	"github.com/daint2git/auth-service/internal/mailer"
	"github.com/daint2git/auth-service/pkg/constant"
	"github.com/daint2git/auth-service/pkg/random"
)

// VerificationService issues and consumes email verification codes. Per-email
// state lives in the ephemeral store under three keys: a resend-cooldown
// marker, a 24h send quota counter, and the verification record itself.
// Attempts are additionally throttled per client address.
type VerificationService struct {
	repo   domain.UserRepository
	store  *store.Client
	mailer mailer.Mailer
	logger *slog.Logger
}

func NewVerificationService(repo domain.UserRepository, storeClient *store.Client, m mailer.Mailer, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		repo:   repo,
		store:  storeClient,
		mailer: m,
		logger: logger,
	}
}

func sentKey(email string) string   { return email + constant.SentKeySuffix }
func countKey(email string) string  { return email + constant.CountKeySuffix }
func attemptKey(addr string) string { return addr + constant.VerifyAttemptKeySuffix }

// Send issues a verification code for email and dispatches it. It returns
// the verification identifier the caller must present together with the
// code. Rejections: *ResendCooldownError while the cooldown marker is live,
// ErrEmailSendLimit once the 24h quota is spent.
func (s *VerificationService) Send(ctx context.Context, email string) (string, error) {
	now := time.Now()

	set, err := s.store.SetStringNX(ctx, sentKey(email), strconv.FormatInt(now.UnixMilli(), 10), constant.ResendCooldown)
	if err != nil {
		return "", err
	}
	if !set {
		return "", s.cooldownError(ctx, email, now)
	}

	if err := s.store.InitCounter(ctx, countKey(email), constant.EmailSendQuota, constant.EmailSendWindow); err != nil {
		return "", err
	}
	remaining, err := s.store.Decrement(ctx, countKey(email))
	if err != nil {
		return "", err
	}
	if remaining < 0 {
		// Quota rejections should not arm the cooldown.
		if err := s.store.Delete(ctx, sentKey(email)); err != nil {
			s.logger.Warn("failed to clear cooldown marker after quota rejection", "email", email, "error", err)
		}
		return "", autherror.ErrEmailSendLimit
	}

	code := uuid.NewString()
	verificationID, err := random.Alphanumeric(constant.VerificationIDLength)
	if err != nil {
		return "", err
	}

	// The record binds code and email; ':' cannot appear in the code.
	if err := s.store.SetString(ctx, verificationID, code+":"+email, constant.VerificationCodeTTL); err != nil {
		return "", err
	}

	subject := fmt.Sprintf("%s is your email verification code", code)
	html := fmt.Sprintf(`<div>The code for verification is %s</div>
<div>The code is valid for only 1 hour</div>
<div>You have received this email because you or someone tried to signup on the website</div>
<div>If you didn't signup, kindly ignore this email.</div>
<div>For support contact us at contact[at]example.com</div>`, code)

	if err := s.mailer.Send(ctx, email, subject, html); err != nil {
		s.logger.Error("verification mail dispatch failed", "email", email, "error", err)
		if cleanupErr := s.store.Delete(ctx, verificationID, sentKey(email)); cleanupErr != nil {
			s.logger.Warn("failed to clean up after dispatch failure", "email", email, "error", cleanupErr)
		}
		return "", autherror.ErrEmailSendFailed
	}

	return verificationID, nil
}

func (s *VerificationService) cooldownError(ctx context.Context, email string, now time.Time) error {
	wait := constant.ResendCooldownMinutes

	raw, found, err := s.store.GetString(ctx, sentKey(email))
	if err == nil && found {
		if sentAt, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			elapsed := int(now.UnixMilli()-sentAt) / 60000
			wait = constant.ResendCooldownMinutes - elapsed
			if wait < 1 {
				wait = 1
			}
		}
	}

	return &autherror.ResendCooldownError{WaitMinutes: wait}
}

// Resend re-issues a verification mail for an already-registered, not yet
// verified address.
func (s *VerificationService) Resend(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", autherror.ErrUserNotFound
	}
	if user.EmailVerified != nil {
		return "", autherror.ErrEmailAlreadyVerified
	}

	return s.Send(ctx, email)
}

// Verify consumes a submitted code. A matching code marks the user's email
// verified and deletes the record; a mismatch leaves the record consumable
// until it expires.
func (s *VerificationService) Verify(ctx context.Context, verificationID, code, clientAddr string) error {
	if err := s.store.InitCounter(ctx, attemptKey(clientAddr), constant.VerifyAttemptQuota, constant.VerifyAttemptWindow); err != nil {
		return err
	}
	remaining, err := s.store.Decrement(ctx, attemptKey(clientAddr))
	if err != nil {
		return err
	}
	if remaining < 0 {
		return autherror.ErrRateLimited
	}

	payload, found, err := s.store.GetString(ctx, verificationID)
	if err != nil {
		return err
	}
	if !found {
		return autherror.ErrCodeExpired
	}

	storedCode, email, ok := strings.Cut(payload, ":")
	if !ok {
		s.logger.Error("malformed verification record", "verification_id", verificationID)
		return autherror.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(storedCode), []byte(code)) != 1 {
		return autherror.ErrInvalidCode
	}

	if err := s.repo.MarkEmailVerified(ctx, email, time.Now()); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, verificationID); err != nil {
		s.logger.Warn("failed to consume verification record", "verification_id", verificationID, "error", err)
	}

	return nil
}
