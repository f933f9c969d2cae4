package handlers

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medadmin-api/internal/middleware"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/services"
	"github.com/harentsoaR/medadmin-api/internal/session"
	"github.com/harentsoaR/medadmin-api/internal/utils"
	"github.com/harentsoaR/medadmin-api/internal/watch"
)

// latestSnapshot holds the most recent snapshot for a slow consumer. Older
// snapshots it has not taken yet are overwritten.
type latestSnapshot struct {
	mu    sync.Mutex
	value watch.Snapshot
	ready chan struct{}
}

func newLatestSnapshot() *latestSnapshot {
	return &latestSnapshot{ready: make(chan struct{}, 1)}
}

func (l *latestSnapshot) put(v watch.Snapshot) {
	l.mu.Lock()
	l.value = v
	l.mu.Unlock()
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latestSnapshot) take() watch.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

type SnapshotEvent struct {
	Projection services.Projection `json:"projection"`
	Accounts   []models.Account    `json:"accounts"`
	Error      string              `json:"error,omitempty"`
	At         time.Time           `json:"at"`
}

type SessionEvent struct {
	Decision string        `json:"decision"`
	State    session.State `json:"state"`
}

func streamHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// StreamProjection pushes a snapshot event every time the projection's
// result set changes, for as long as the client stays connected.
func (h *Handler) StreamProjection(c *gin.Context) {
	p, err := services.ParseProjection(c.Param("projection"))
	if err != nil {
		utils.Fail(c, http.StatusNotFound, "Unknown projection", nil)
		return
	}

	ctx := c.Request.Context()
	updates := newLatestSnapshot()
	unsubscribe := h.Live.Subscribe(ctx, p.Query(), updates.put)
	defer unsubscribe()

	streamHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-updates.ready:
		}
		snap := updates.take()
		ev := SnapshotEvent{Projection: p, Accounts: snap.Accounts, At: snap.At}
		if ev.Accounts == nil {
			ev.Accounts = []models.Account{}
		}
		if snap.Err != nil {
			ev.Error = MsgLoadFailed
		}
		c.SSEvent("snapshot", ev)
		return true
	})
}

// StreamSession reports the gate state on every change and ends the stream
// once the session is no longer an administrator's.
func (h *Handler) StreamSession(c *gin.Context) {
	g := middleware.GateFrom(c)
	if g == nil {
		utils.Fail(c, http.StatusUnauthorized, "Administrator session required", nil)
		return
	}

	ctx := c.Request.Context()
	changed := make(chan struct{}, 1)
	changed <- struct{}{}
	cancel := g.OnChange(func(session.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	streamHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
		}
		st := g.State()
		d := session.Decide(st)
		c.SSEvent("session", SessionEvent{Decision: d.String(), State: st})
		return d == session.Allow || d == session.Wait
	})
}
