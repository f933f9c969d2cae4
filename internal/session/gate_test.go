package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/utils"
)

type fakeSource struct {
	mu          sync.Mutex
	fn          func(*models.Identity)
	unsubscribe int
	signOutErr  error
	signOuts    int
}

func (f *fakeSource) OnIdentityChanged(fn func(*models.Identity)) func() {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.unsubscribe++
			f.mu.Unlock()
		})
	}
}

func (f *fakeSource) emit(ident *models.Identity) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	fn(ident)
}

func (f *fakeSource) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

// gatedAccounts blocks lookups for ids in hold until release is called.
type gatedAccounts struct {
	store.AccountStore
	mu   sync.Mutex
	hold map[string]chan struct{}
	err  error
}

func (g *gatedAccounts) Get(ctx context.Context, id string) (*models.Account, error) {
	g.mu.Lock()
	ch := g.hold[id]
	err := g.err
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
	if err != nil {
		return nil, err
	}
	return g.AccountStore.Get(ctx, id)
}

func (g *gatedAccounts) block(id string) func() {
	ch := make(chan struct{})
	g.mu.Lock()
	if g.hold == nil {
		g.hold = map[string]chan struct{}{}
	}
	g.hold[id] = ch
	g.mu.Unlock()
	return func() { close(ch) }
}

func newFixture(t *testing.T) (*Gate, *fakeSource, *gatedAccounts) {
	t.Helper()
	accounts := &gatedAccounts{AccountStore: store.NewInMemory(
		models.Account{ID: "admin", Role: models.RoleAdmin},
		models.Account{ID: "doc", Role: models.RoleDoctor, Verified: true},
	)}
	src := &fakeSource{}
	g := NewGate(src, accounts, utils.NewNopLogger())
	g.Start(context.Background())
	t.Cleanup(g.Close)
	return g, src, accounts
}

func waitResolved(t *testing.T, g *Gate) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := g.Wait(ctx)
	require.NoError(t, err)
	return st
}

func TestDecide(t *testing.T) {
	assert.Equal(t, Wait, Decide(State{Loading: true}))
	assert.Equal(t, Wait, Decide(State{Loading: true, IsAdmin: true}))
	assert.Equal(t, Allow, Decide(State{IsAdmin: true}))
	assert.Equal(t, Redirect, Decide(State{}))
	assert.Equal(t, Redirect, Decide(State{Identity: &models.Identity{UID: "x"}}))
}

func TestGate_InitiallyLoading(t *testing.T) {
	g, _, _ := newFixture(t)
	assert.Equal(t, Wait, Decide(g.State()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGate_Resolution(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		lookup   error
		admin    bool
		account  bool
	}{
		{name: "no identity", identity: nil},
		{name: "admin", identity: &models.Identity{UID: "admin"}, admin: true, account: true},
		{name: "non-admin", identity: &models.Identity{UID: "doc"}, account: true},
		{name: "missing account", identity: &models.Identity{UID: "ghost"}},
		{name: "lookup failure", identity: &models.Identity{UID: "admin"}, lookup: errors.New("store unavailable")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, src, accounts := newFixture(t)
			accounts.err = tt.lookup
			src.emit(tt.identity)

			st := waitResolved(t, g)
			assert.False(t, st.Loading)
			assert.Equal(t, tt.admin, st.IsAdmin)
			assert.Equal(t, tt.account, st.Account != nil)
			assert.Equal(t, tt.identity, st.Identity)
		})
	}
}

func TestGate_LoadingWhileLookupPending(t *testing.T) {
	g, src, accounts := newFixture(t)
	release := accounts.block("admin")

	src.emit(&models.Identity{UID: "admin"})
	st := g.State()
	assert.True(t, st.Loading)
	assert.NotNil(t, st.Identity)
	assert.Equal(t, Wait, Decide(st))

	release()
	assert.Equal(t, Allow, Decide(waitResolved(t, g)))
}

func TestGate_SupersededLookupDiscarded(t *testing.T) {
	g, src, accounts := newFixture(t)
	release := accounts.block("admin")

	src.emit(&models.Identity{UID: "admin"})
	src.emit(nil)
	release()

	time.Sleep(20 * time.Millisecond)
	st := g.State()
	assert.False(t, st.IsAdmin)
	assert.Nil(t, st.Identity)
	assert.Equal(t, Redirect, Decide(st))
}

func TestGate_LookupAfterCloseDiscarded(t *testing.T) {
	g, src, accounts := newFixture(t)
	release := accounts.block("admin")

	src.emit(&models.Identity{UID: "admin"})
	g.Close()
	release()

	time.Sleep(20 * time.Millisecond)
	assert.True(t, g.State().Loading)
	_, err := g.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGate_CloseUnsubscribesOnce(t *testing.T) {
	g, src, _ := newFixture(t)
	g.Close()
	g.Close()
	assert.Equal(t, 1, src.unsubscribe)

	src.emit(&models.Identity{UID: "admin"})
	assert.True(t, g.State().Loading, "notifications after close are ignored")
}

func TestGate_Logout(t *testing.T) {
	t.Run("success clears the session", func(t *testing.T) {
		g, src, _ := newFixture(t)
		src.emit(&models.Identity{UID: "admin"})
		require.True(t, waitResolved(t, g).IsAdmin)

		require.NoError(t, g.Logout(context.Background()))
		assert.Equal(t, State{}, g.State())
		assert.Equal(t, 1, src.signOuts)
	})

	t.Run("failure is returned and the session remains", func(t *testing.T) {
		g, src, _ := newFixture(t)
		src.emit(&models.Identity{UID: "admin"})
		require.True(t, waitResolved(t, g).IsAdmin)

		boom := errors.New("network down")
		src.signOutErr = boom
		err := g.Logout(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.True(t, g.State().IsAdmin)
	})
}

func TestGate_OnChange(t *testing.T) {
	g, src, _ := newFixture(t)

	var mu sync.Mutex
	var seen []State
	cancel := g.OnChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	src.emit(&models.Identity{UID: "admin"})
	waitResolved(t, g)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && seen[1].IsAdmin
	}, time.Second, 5*time.Millisecond)

	cancel()
	src.emit(nil)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 2)
}
