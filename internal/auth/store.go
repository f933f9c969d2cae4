package auth

import (
	"context"
	"time"
)

// Credential is the sign-in secret for an account. ID equals the account id.
type Credential struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type SessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"uid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResetCode is a single-use password reset code. Records outlive ExpiresAt so
// an expired code can be told apart from an unknown one.
type ResetCode struct {
	Code         string    `json:"code"`
	CredentialID string    `json:"credentialId"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ResetCodeRetention is how long a reset record is kept past its expiry.
const ResetCodeRetention = 24 * time.Hour

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	Create(ctx context.Context, c *Credential) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type SessionStore interface {
	Save(ctx context.Context, s SessionRecord) error
	Find(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

type ResetCodeStore interface {
	Save(ctx context.Context, c ResetCode) error
	Find(ctx context.Context, code string) (*ResetCode, error)
	Delete(ctx context.Context, code string) error
}

// AttemptCounter counts failed sign-ins per email. The count resets once the
// window opened by the first failure elapses.
type AttemptCounter interface {
	Count(ctx context.Context, email string) (int, error)
	Increment(ctx context.Context, email string, window time.Duration) (int, error)
	Reset(ctx context.Context, email string) error
}
