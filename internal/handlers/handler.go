package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/services"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/watch"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// CredentialService is the credential store surface the handlers use.
type CredentialService interface {
	SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetCode(ctx context.Context, code string) (string, error)
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
}

// AccountService runs reads and workflow commands on accounts.
type AccountService interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, p services.Projection) ([]models.Account, error)
	Verify(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	ToggleVerified(ctx context.Context, id string, currentVerified bool) (bool, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (services.Stats, error)
}

// LiveQueries attaches listeners to live account queries.
type LiveQueries interface {
	Subscribe(ctx context.Context, q store.Query, l watch.Listener) func()
}

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// Handler holds the collaborators shared by every endpoint.
type Handler struct {
	Auth     CredentialService
	Accounts AccountService
	Live     LiveQueries
	Cookie   CookieConfig
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
}

func NewHandler(authSvc CredentialService, accounts AccountService, live LiveQueries, cookie CookieConfig, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		Auth:     authSvc,
		Accounts: accounts,
		Live:     live,
		Cookie:   cookie,
		Logger:   logger,
		Metrics:  m,
	}
}
