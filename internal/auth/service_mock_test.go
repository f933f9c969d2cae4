package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/auth/mocks"
	"github.com/harentsoaR/medadmin-api/internal/mailer"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

type ServiceMockSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	creds    *mocks.MockCredentialRepository
	sessions *mocks.MockSessionStore
	codes    *mocks.MockResetCodeStore
	attempts *mocks.MockAttemptCounter
	svc      *auth.Service
}

func TestServiceMockSuite(t *testing.T) {
	suite.Run(t, new(ServiceMockSuite))
}

func (s *ServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.creds = mocks.NewMockCredentialRepository(s.ctrl)
	s.sessions = mocks.NewMockSessionStore(s.ctrl)
	s.codes = mocks.NewMockResetCodeStore(s.ctrl)
	s.attempts = mocks.NewMockAttemptCounter(s.ctrl)
	logger := utils.NewNopLogger()
	s.svc = auth.NewService(s.creds, s.sessions, s.codes, s.attempts,
		utils.NewTokenManager("test-secret", time.Hour), mailer.LogMailer{Logger: logger}, logger, nil,
		auth.Options{})
}

func (s *ServiceMockSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceMockSuite) TestSignIn_RepositoryErrorIsNotAFailedAttempt() {
	boom := errors.New("mongo unavailable")
	s.attempts.EXPECT().Count(gomock.Any(), "admin@example.com").Return(0, nil)
	s.creds.EXPECT().FindByEmail(gomock.Any(), "admin@example.com").Return(nil, boom)

	_, err := s.svc.SignIn(context.Background(), "admin@example.com", "whatever")
	s.ErrorIs(err, boom)
}

func (s *ServiceMockSuite) TestSignIn_LockedOutSkipsLookup() {
	s.attempts.EXPECT().Count(gomock.Any(), "admin@example.com").Return(5, nil)

	_, err := s.svc.SignIn(context.Background(), "admin@example.com", "whatever")
	s.ErrorIs(err, auth.ErrTooManyAttempts)
}

func (s *ServiceMockSuite) TestSignIn_UnknownEmailCountsFailure() {
	s.attempts.EXPECT().Count(gomock.Any(), "ghost@example.com").Return(2, nil)
	s.creds.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, auth.ErrUserNotFound)
	s.attempts.EXPECT().Increment(gomock.Any(), "ghost@example.com", 15*time.Minute).Return(3, nil)

	_, err := s.svc.SignIn(context.Background(), "ghost@example.com", "whatever")
	s.ErrorIs(err, auth.ErrUserNotFound)
}

func (s *ServiceMockSuite) TestSignOut_StoreError() {
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	token, _, err := tokens.Generate("uid-1", "sid-1")
	s.Require().NoError(err)

	boom := errors.New("redis unavailable")
	s.sessions.EXPECT().Delete(gomock.Any(), "sid-1").Return(boom)

	s.ErrorIs(s.svc.SignOut(context.Background(), token), boom)
}

func (s *ServiceMockSuite) TestConfirmReset_ExpiredCodeNeverTouchesCredentials() {
	s.codes.EXPECT().Find(gomock.Any(), "old").Return(&auth.ResetCode{
		Code:      "old",
		Email:     "admin@example.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)

	s.ErrorIs(s.svc.ConfirmPasswordReset(context.Background(), "old", "N3w$ecret!"), auth.ErrExpiredCode)
}
