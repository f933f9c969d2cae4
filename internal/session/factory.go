package session

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Binder produces the identity source for a session token.
type Binder func(ctx context.Context, token string) Source

// Factory opens gates bound to session tokens.
type Factory struct {
	Bind     Binder
	Accounts AccountLookup
	Logger   *logrus.Logger
}

// Open returns a started gate for token. The caller must Close it.
func (f *Factory) Open(ctx context.Context, token string) *Gate {
	g := NewGate(f.Bind(ctx, token), f.Accounts, f.Logger)
	g.Start(ctx)
	return g
}
