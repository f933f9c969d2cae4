// Package session owns the authorization gate for protected views. A Gate is
// created per request or stream, resolves the signed-in identity to an
// account and reports whether that account may use the dashboard.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

var ErrClosed = errors.New("session gate closed")

// Source reports identity changes for one session and can end it.
type Source interface {
	OnIdentityChanged(fn func(*models.Identity)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

type AccountLookup interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// State is the gate's view of the session. Account is nil when no identity
// is signed in or its account could not be loaded.
type State struct {
	Identity *models.Identity `json:"identity"`
	Account  *models.Account  `json:"account"`
	Loading  bool             `json:"loading"`
	IsAdmin  bool             `json:"isAdmin"`
}

type Decision int

const (
	Wait Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	default:
		return "redirect"
	}
}

// Decide maps a state to what a protected view must do. Nothing is rendered
// and nothing redirects while the state is loading.
func Decide(s State) Decision {
	switch {
	case s.Loading:
		return Wait
	case s.IsAdmin:
		return Allow
	default:
		return Redirect
	}
}

type Gate struct {
	source   Source
	accounts AccountLookup
	logger   *logrus.Logger

	mu          sync.Mutex
	state       State
	seq         uint64
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	changed     chan struct{}
	listeners   map[uint64]func(State)
	nextID      uint64

	notifyMu  sync.Mutex
	startOnce sync.Once
	closeOnce sync.Once
}

// NewGate returns a gate in the loading state. Call Start to begin resolving
// and Close on every exit path.
func NewGate(source Source, accounts AccountLookup, logger *logrus.Logger) *Gate {
	return &Gate{
		source:    source,
		accounts:  accounts,
		logger:    logger,
		state:     State{Loading: true},
		changed:   make(chan struct{}),
		listeners: make(map[uint64]func(State)),
	}
}

// Start subscribes to identity changes. ctx bounds account lookups.
func (g *Gate) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return
		}
		g.ctx, g.cancel = context.WithCancel(ctx)
		g.mu.Unlock()

		unsub := g.source.OnIdentityChanged(g.onIdentity)

		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			unsub()
			return
		}
		g.unsubscribe = unsub
		g.mu.Unlock()
	})
}

// Close unsubscribes from the source and discards in-flight lookups. It is
// safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		unsub, cancel := g.unsubscribe, g.cancel
		g.unsubscribe = nil
		g.listeners = map[uint64]func(State){}
		close(g.changed)
		g.changed = make(chan struct{})
		g.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		if cancel != nil {
			cancel()
		}
	})
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnChange calls fn after every state change until cancel is called or the
// gate closes. Calls are serialized and the last call carries the latest state.
func (g *Gate) OnChange(fn func(State)) (cancel func()) {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// Wait blocks until the state is no longer loading.
func (g *Gate) Wait(ctx context.Context) (State, error) {
	for {
		g.mu.Lock()
		st, ch, closed := g.state, g.changed, g.closed
		g.mu.Unlock()

		if !st.Loading {
			return st, nil
		}
		if closed {
			return st, ErrClosed
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Logout signs the session out. On failure the error is returned and the
// state is left as it was.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.source.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.seq++
	g.setLocked(State{})
	g.mu.Unlock()
	g.emit()
	return nil
}

func (g *Gate) onIdentity(ident *models.Identity) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.seq++
	seq := g.seq
	if ident == nil {
		g.setLocked(State{})
		g.mu.Unlock()
		g.emit()
		return
	}
	g.setLocked(State{Identity: ident, Loading: true})
	ctx := g.ctx
	g.mu.Unlock()
	g.emit()

	go g.lookup(ctx, seq, ident)
}

func (g *Gate) lookup(ctx context.Context, seq uint64, ident *models.Identity) {
	acc, err := g.accounts.Get(ctx, ident.UID)

	g.mu.Lock()
	if g.closed || seq != g.seq {
		g.mu.Unlock()
		return
	}
	if err != nil {
		g.logger.WithError(err).WithField("account_id", ident.UID).Warn("could not resolve session account")
		g.setLocked(State{Identity: ident})
	} else {
		g.setLocked(State{Identity: ident, Account: acc, IsAdmin: acc.IsAdmin()})
	}
	g.mu.Unlock()
	g.emit()
}

func (g *Gate) setLocked(s State) {
	g.state = s
	close(g.changed)
	g.changed = make(chan struct{})
}

func (g *Gate) emit() {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	st := g.state
	fns := make([]func(State), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
