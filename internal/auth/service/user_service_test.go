package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/daint2git/auth-service/internal/auth/domain"
	"github.com/daint2git/auth-service/internal/auth/dto"
	"github.com/daint2git/auth-service/internal/auth/service"
	"github.com/daint2git/auth-service/internal/auth/store"
	autherror "github.com/daint2git/auth-service/internal/errors"
	"github.com/daint2git/auth-service/internal/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*store.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return store.New(rdb), mr
}

func newUserService(t *testing.T, ctrl *gomock.Controller) (*service.UserService, *mocks.MockUserRepository, *mocks.MockMailer) {
	t.Helper()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)
	storeClient, _ := newTestStore(t)

	sessions := service.NewSessionService(mockRepo, 7)
	verification := service.NewVerificationService(mockRepo, storeClient, mockMailer, discardLogger())
	s := service.NewUserService(mockRepo, sessions, verification, discardLogger())

	return s, mockRepo, mockMailer
}

func domainUser(email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:        "user-1",
		Email:     email,
		Name:      "Test User",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserService_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, mockMailer := newUserService(t, ctrl)

	input := dto.RegisterInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mockMailer.EXPECT().Send(gomock.Any(), input.Email, gomock.Any(), gomock.Any()).Return(nil)

	verificationID, err := s.Register(context.Background(), input)

	assert.NoError(t, err)
	assert.Len(t, verificationID, 24)
}

func TestUserService_Register_EmailAlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	input := dto.RegisterInput{
		Name:     "Test User",
		Email:    "taken@example.com",
		Password: "password123",
	}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(domainUser(input.Email), nil)

	verificationID, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	assert.Empty(t, verificationID)
}

func TestUserService_Register_MailFailureRollsBackUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, mockMailer := newUserService(t, ctrl)

	input := dto.RegisterInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mockMailer.EXPECT().Send(gomock.Any(), input.Email, gomock.Any(), gomock.Any()).Return(errors.New("resend is down"))
	mockRepo.EXPECT().DeleteByEmail(gomock.Any(), input.Email).Return(nil)

	verificationID, err := s.Register(context.Background(), input)

	assert.ErrorIs(t, err, autherror.ErrEmailSendFailed)
	assert.Empty(t, verificationID)
}

func TestUserService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	password := "password123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	require.NoError(t, err)

	user := domainUser("test@example.com")
	user.HashedPassword = string(hash)
	verifiedAt := time.Now().Add(-time.Hour)
	user.EmailVerified = &verifiedAt

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(nil)

	sess, err := s.Login(context.Background(), dto.LoginInput{Email: user.Email, Password: password})

	assert.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, user.ID, sess.UserID)
	assert.NotEmpty(t, sess.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), sess.Expires, time.Minute)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)

	sess, err := s.Login(context.Background(), dto.LoginInput{Email: "nobody@example.com", Password: "whatever"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	assert.Nil(t, sess)
}

func TestUserService_Login_UnverifiedBeforePasswordCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	user := domainUser("unverified@example.com")
	user.HashedPassword = "not-a-real-hash"

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)

	// The unverified response is returned even for a wrong password.
	sess, err := s.Login(context.Background(), dto.LoginInput{Email: user.Email, Password: "wrong"})

	assert.ErrorIs(t, err, autherror.ErrEmailUnverified)
	assert.Nil(t, sess)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), 10)
	require.NoError(t, err)

	user := domainUser("test@example.com")
	user.HashedPassword = string(hash)
	verifiedAt := time.Now()
	user.EmailVerified = &verifiedAt

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)

	sess, err := s.Login(context.Background(), dto.LoginInput{Email: user.Email, Password: "battery staple"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	assert.Nil(t, sess)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s, mockRepo, _ := newUserService(t, ctrl)

	mockRepo.EXPECT().UpdateName(gomock.Any(), "user-1", "New Name").Return(nil)

	assert.NoError(t, s.UpdateProfile(context.Background(), "user-1", "New Name"))
}
