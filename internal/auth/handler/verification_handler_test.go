package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/dto"
)

func TestSendVerificationMail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ta := newTestApp(t, ctrl)

	pending := &domain.User{ID: "user-1", Email: "pending@example.com"}

	t.Run("success", func(t *testing.T) {
		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), pending.Email).Return(pending, nil)
		ta.mockMailer.EXPECT().Send(gomock.Any(), pending.Email, gomock.Any(), gomock.Any()).Return(nil)

		body, _ := json.Marshal(dto.SendVerificationInput{Email: pending.Email})
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		data, ok := decodeBody(t, resp)["data"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, data["verificationId"], 24)
	})

	t.Run("missing email", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)

		body, _ := json.Marshal(dto.SendVerificationInput{Email: "nobody@example.com"})
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "user_not_exist", decodeBody(t, resp)["error"])
	})

	t.Run("already verified", func(t *testing.T) {
		verifiedAt := time.Now()
		verified := &domain.User{ID: "user-2", Email: "done@example.com", EmailVerified: &verifiedAt}

		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), verified.Email).Return(verified, nil)

		body, _ := json.Marshal(dto.SendVerificationInput{Email: verified.Email})
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "email_already_verified", decodeBody(t, resp)["error"])
	})

	t.Run("resend cooldown", func(t *testing.T) {
		// The previous successful send armed the cooldown marker.
		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), pending.Email).Return(pending, nil)

		body, _ := json.Marshal(dto.SendVerificationInput{Email: pending.Email})
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

		decoded := decodeBody(t, resp)
		assert.Equal(t, "resend_limit", decoded["error"])
		assert.Contains(t, decoded["message"], "minutes before generating new request")
	})

	t.Run("daily quota", func(t *testing.T) {
		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), pending.Email).Return(pending, nil).Times(4)
		ta.mockMailer.EXPECT().Send(gomock.Any(), pending.Email, gomock.Any(), gomock.Any()).Return(nil).Times(3)

		for i := 0; i < 4; i++ {
			ta.mr.FastForward(11 * time.Minute)

			body, _ := json.Marshal(dto.SendVerificationInput{Email: pending.Email})
			req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := ta.app.Test(req)
			require.NoError(t, err)

			if i < 3 {
				assert.Equal(t, fiber.StatusOK, resp.StatusCode, "send %d", i+2)
				continue
			}

			// The fourth send here is the fifth within 24h overall.
			assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
			decoded := decodeBody(t, resp)
			assert.Equal(t, "rate_limit", decoded["error"])
			assert.Contains(t, decoded["message"], "24 hrs")
		}
	})
}

func TestVerifyEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ta := newTestApp(t, ctrl)

	requestVerification := func(t *testing.T, email string) (id, code string) {
		t.Helper()

		user := &domain.User{ID: "user-1", Email: email}
		ta.mockRepo.EXPECT().GetByEmail(gomock.Any(), email).Return(user, nil)
		ta.mockMailer.EXPECT().
			Send(gomock.Any(), email, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _, subject, _ string) error {
				code, _, _ = strings.Cut(subject, " ")
				return nil
			})

		body, _ := json.Marshal(dto.SendVerificationInput{Email: email})
		req := httptest.NewRequest("POST", "/api/auth/verification-mail", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data, ok := decodeBody(t, resp)["data"].(map[string]any)
		require.True(t, ok)
		id, _ = data["verificationId"].(string)
		return id, code
	}

	t.Run("success", func(t *testing.T) {
		id, code := requestVerification(t, "test@example.com")
		ta.mockRepo.EXPECT().MarkEmailVerified(gomock.Any(), "test@example.com", gomock.Any()).Return(nil)

		body, _ := json.Marshal(dto.VerifyEmailInput{ID: id, Code: code})
		req := httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		decoded := decodeBody(t, resp)
		assert.Equal(t, "Email Verified", decoded["message"])
		data, ok := decoded["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, data["emailVerified"])
	})

	t.Run("missing fields", func(t *testing.T) {
		body, _ := json.Marshal(dto.VerifyEmailInput{ID: "some-id"})
		req := httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_error", decodeBody(t, resp)["error"])
	})

	t.Run("unknown id", func(t *testing.T) {
		body, _ := json.Marshal(dto.VerifyEmailInput{ID: "doesnotexist", Code: "whatever"})
		req := httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "code_expired", decodeBody(t, resp)["error"])
	})

	t.Run("wrong code", func(t *testing.T) {
		ta.mr.FastForward(11 * time.Minute)
		id, code := requestVerification(t, "retry@example.com")

		body, _ := json.Marshal(dto.VerifyEmailInput{ID: id, Code: "not-the-code"})
		req := httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_code", decodeBody(t, resp)["error"])

		// The record survives a mismatch; the real code still verifies.
		ta.mockRepo.EXPECT().MarkEmailVerified(gomock.Any(), "retry@example.com", gomock.Any()).Return(nil)

		body, _ = json.Marshal(dto.VerifyEmailInput{ID: id, Code: code})
		req = httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err = ta.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("attempt rate limit", func(t *testing.T) {
		ta.mr.FastForward(11 * time.Second)

		var lastStatus int
		for i := 0; i < 11; i++ {
			body, _ := json.Marshal(dto.VerifyEmailInput{ID: "doesnotexist", Code: "x"})
			req := httptest.NewRequest("POST", "/api/auth/verify-email", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			r, err := ta.app.Test(req)
			require.NoError(t, err)
			lastStatus = r.StatusCode
		}

		assert.Equal(t, fiber.StatusTooManyRequests, lastStatus)
	})
}
