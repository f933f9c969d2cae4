// Package auth is the credential store: sign-in with lockout, server-side
// sessions behind signed tokens, and single-use password reset codes.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medadmin-api/internal/mailer"
	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

// MinPasswordLength is the credential store's own floor, independent of the
// dashboard password policy.
const MinPasswordLength = 6

type Options struct {
	BcryptCost         int
	ResetCodeTTL       time.Duration
	ResetURL           string
	MaxFailedSignIns   int
	FailedSignInWindow time.Duration
}

type Service struct {
	creds    CredentialRepository
	sessions SessionStore
	codes    ResetCodeStore
	attempts AttemptCounter
	tokens   *utils.TokenManager
	mailer   mailer.Mailer
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time

	mu       sync.Mutex
	watchers map[string]map[uint64]func()
	nextID   uint64
}

func NewService(
	creds CredentialRepository,
	sessions SessionStore,
	codes ResetCodeStore,
	attempts AttemptCounter,
	tokens *utils.TokenManager,
	m mailer.Mailer,
	logger *logrus.Logger,
	met *metrics.Metrics,
	opts Options,
) *Service {
	if opts.MaxFailedSignIns <= 0 {
		opts.MaxFailedSignIns = 5
	}
	if opts.FailedSignInWindow <= 0 {
		opts.FailedSignInWindow = 15 * time.Minute
	}
	if opts.ResetCodeTTL <= 0 {
		opts.ResetCodeTTL = time.Hour
	}
	return &Service{
		creds:    creds,
		sessions: sessions,
		codes:    codes,
		attempts: attempts,
		tokens:   tokens,
		mailer:   m,
		logger:   logger,
		metrics:  met,
		opts:     opts,
		now:      time.Now,
		watchers: make(map[string]map[uint64]func()),
	}
}

type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  models.Identity
}

// SignIn checks the password and opens a session. Failures count toward the
// lockout; once the limit is reached every attempt fails with
// ErrTooManyAttempts until the window passes.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	res, err := s.signIn(ctx, email, password)
	s.metrics.IncSignIn(signInOutcome(err))
	return res, err
}

func (s *Service) signIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || password == "" {
		return nil, ErrInvalidCredential
	}

	failed, err := s.attempts.Count(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("read failed attempts: %w", err)
	}
	if failed >= s.opts.MaxFailedSignIns {
		return nil, ErrTooManyAttempts
	}

	cred, err := s.creds.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.recordFailure(ctx, email)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, cred.PasswordHash) {
		s.recordFailure(ctx, email)
		return nil, ErrWrongPassword
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		s.logger.WithError(err).Warn("could not reset failed sign-in counter")
	}

	sid := uuid.NewString()
	token, exp, err := s.tokens.Generate(cred.ID, sid)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	rec := SessionRecord{ID: sid, UserID: cred.ID, Email: cred.Email, CreatedAt: s.now(), ExpiresAt: exp}
	if err := s.sessions.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"account_id": cred.ID, "session_id": sid}).Info("signed in")
	return &SignInResult{
		Token:     token,
		ExpiresAt: exp,
		Identity:  models.Identity{UID: cred.ID, Email: cred.Email},
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if _, err := s.attempts.Increment(ctx, email, s.opts.FailedSignInWindow); err != nil {
		s.logger.WithError(err).Warn("could not count failed sign-in")
	}
}

func signInOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooManyAttempts):
		return "locked"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrWrongPassword), errors.Is(err, ErrInvalidCredential):
		return "rejected"
	default:
		return "error"
	}
}

// Resolve returns the identity behind token, or nil when the token is
// invalid or its session has ended.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}
	rec, err := s.sessions.Find(ctx, claims.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.UserID != claims.UserID {
		return nil, nil
	}
	return &models.Identity{UID: rec.UserID, Email: rec.Email}, nil
}

// SignOut ends the session behind token and notifies every binding watching
// it. An invalid token has no session and signs out trivially.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"account_id": claims.UserID, "session_id": claims.SessionID}).Info("signed out")
	s.notifySignedOut(claims.SessionID)
	return nil
}

func (s *Service) watch(sid string, fn func()) (unwatch func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.watchers[sid] == nil {
		s.watchers[sid] = make(map[uint64]func())
	}
	s.watchers[sid][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[sid], id)
		if len(s.watchers[sid]) == 0 {
			delete(s.watchers, sid)
		}
	}
}

func (s *Service) notifySignedOut(sid string) {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.watchers[sid]))
	for _, fn := range s.watchers[sid] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// RequestPasswordReset mails a reset link when email has a credential. The
// result never reveals whether it does.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	cred, err := s.creds.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.WithField("email", normalizeEmail(email)).Debug("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	code, err := genCode(32)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	rc := ResetCode{Code: code, CredentialID: cred.ID, Email: cred.Email, ExpiresAt: s.now().Add(s.opts.ResetCodeTTL)}
	if err := s.codes.Save(ctx, rc); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}

	subject, text, err := mailer.ResetPasswordMessage(s.opts.ResetURL, code)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, cred.Email, subject, text, ""); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.logger.WithField("account_id", cred.ID).Info("password reset requested")
	return nil
}

// VerifyPasswordResetCode returns the email the code was issued for.
func (s *Service) VerifyPasswordResetCode(ctx context.Context, code string) (string, error) {
	rc, err := s.lookupCode(ctx, code)
	if err != nil {
		return "", err
	}
	return rc.Email, nil
}

// ConfirmPasswordReset sets a new password and consumes the code.
func (s *Service) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	rc, err := s.lookupCode(ctx, code)
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, rc.CredentialID, hash); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, code); err != nil {
		s.logger.WithError(err).Warn("could not consume reset code")
	}
	if err := s.attempts.Reset(ctx, rc.Email); err != nil {
		s.logger.WithError(err).Warn("could not reset failed sign-in counter")
	}
	s.logger.WithField("account_id", rc.CredentialID).Info("password reset confirmed")
	return nil
}

func (s *Service) lookupCode(ctx context.Context, code string) (*ResetCode, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}
	rc, err := s.codes.Find(ctx, code)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(rc.ExpiresAt) {
		return nil, ErrExpiredCode
	}
	return rc, nil
}

// CreateCredential registers email with password and returns the new
// credential. The id is a fresh ObjectID hex string shared with the account.
func (s *Service) CreateCredential(ctx context.Context, email, password string) (*Credential, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidCredential
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := utils.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	c := &Credential{
		ID:           primitive.NewObjectID().Hex(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.creds.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPassword replaces the password of an existing credential.
func (s *Service) SetPassword(ctx context.Context, email, password string) (*Credential, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	c, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, c.ID, hash); err != nil {
		return nil, err
	}
	c.PasswordHash = hash
	return c, nil
}

func genCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
