package auth

import (
	"context"
	"sync"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

// Binding ties one session token to the listeners interested in its identity.
// It reports the resolved identity once, then nil when the session is signed
// out anywhere in this process.
type Binding struct {
	svc   *Service
	ctx   context.Context
	token string

	mu        sync.Mutex
	listeners map[uint64]func(*models.Identity)
	nextID    uint64
	ended     bool
}

// Bind returns a Binding for token. ctx bounds the identity lookups it runs.
func (s *Service) Bind(ctx context.Context, token string) *Binding {
	return &Binding{svc: s, ctx: ctx, token: token, listeners: make(map[uint64]func(*models.Identity))}
}

// OnIdentityChanged registers fn and starts resolving the token. fn is called
// from another goroutine and must not call back into the Binding.
func (b *Binding) OnIdentityChanged(fn func(*models.Identity)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.mu.Unlock()

	unwatch := func() {}
	if claims, err := b.svc.tokens.Parse(b.token); err == nil {
		unwatch = b.svc.watch(claims.SessionID, b.end)
	}

	go func() {
		ident, err := b.svc.Resolve(b.ctx, b.token)
		if err != nil {
			b.svc.logger.WithError(err).Warn("session lookup failed")
			ident = nil
		}
		b.deliver(id, ident)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unwatch()
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Binding) deliver(id uint64, ident *models.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.listeners[id]
	if !ok || (b.ended && ident != nil) {
		return
	}
	fn(ident)
}

func (b *Binding) end() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ended = true
	for _, fn := range b.listeners {
		fn(nil)
	}
}

// SignOut ends the bound session.
func (b *Binding) SignOut(ctx context.Context) error {
	return b.svc.SignOut(ctx, b.token)
}
