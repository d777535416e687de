package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailUnverified      = errors.New("email not verified")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrRateLimited          = errors.New("too many requests")
	ErrEmailSendLimit       = errors.New("email send limit reached")
	ErrCodeExpired          = errors.New("verification code expired")
	ErrInvalidCode          = errors.New("invalid verification code")
	ErrEmailSendFailed      = errors.New("error while sending mail")
	ErrLinkRefused          = errors.New("account linking refused")
	ErrStoreUnavailable     = errors.New("ephemeral store unavailable")
)

// ResendCooldownError reports how long a caller must wait before another
// verification mail can be requested for the same address.
type ResendCooldownError struct {
	WaitMinutes int
}

func (e *ResendCooldownError) Error() string {
	return fmt.Sprintf("resend cooldown active, wait %d minutes", e.WaitMinutes)
}
