package constant

import "time"

// Cookie names shared between handlers and the browser.
const (
	SessionCookieName        = "app_auth_token"
	GoogleStateCookieName    = "google_oauth_state"
	GithubStateCookieName    = "github_oauth_state"
	GoogleVerifierCookieName = "google_code_challenge"
)

// Verification limits. The sent marker's TTL equals the advertised cooldown
// so the marker cannot outlive the reject window it enforces.
const (
	VerificationCodeTTL   = time.Hour
	VerificationIDLength  = 24
	ResendCooldown        = 10 * time.Minute
	ResendCooldownMinutes = 10
	EmailSendQuota        = 4
	EmailSendWindow       = 24 * time.Hour
	VerifyAttemptQuota    = 10
	VerifyAttemptWindow   = 10 * time.Second
)

// Redis key suffixes for per-identity counters.
const (
	SentKeySuffix          = ":sent"
	CountKeySuffix         = ":count"
	VerifyAttemptKeySuffix = "_email_ver_attempt"
)

const DefaultSessionExpiryDays = 7
