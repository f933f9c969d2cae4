// Package watch multiplexes live account queries. Each distinct query has a
// single underlying subscription regardless of how many listeners share it.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
)

// Snapshot is the result set of a live query at one point in time. When Err
// is set the query failed and Accounts holds the last good result.
type Snapshot struct {
	Accounts []models.Account
	Err      error
	At       time.Time
}

type Listener func(Snapshot)

// Lister runs a query against the document store.
type Lister interface {
	List(ctx context.Context, q store.Query) ([]models.Account, error)
}

type subscription struct {
	key       string
	query     store.Query
	listeners map[uint64]Listener
	last      *Snapshot
	issued    uint64
	applied   uint64
}

type Hub struct {
	src     Lister
	logger  *logrus.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	subs   map[string]*subscription
	nextID uint64
}

func NewHub(src Lister, logger *logrus.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		src:     src,
		logger:  logger,
		metrics: m,
		subs:    make(map[string]*subscription),
	}
}

// Subscribe attaches l to the live query q. A listener joining an existing
// subscription receives the latest snapshot immediately; the first listener
// triggers the initial load. The returned func detaches l and may be called
// any number of times.
func (h *Hub) Subscribe(ctx context.Context, q store.Query, l Listener) func() {
	key := q.Key()

	h.mu.Lock()
	sub, ok := h.subs[key]
	if !ok {
		sub = &subscription{key: key, query: q, listeners: make(map[uint64]Listener)}
		h.subs[key] = sub
	}
	h.nextID++
	id := h.nextID
	sub.listeners[id] = l
	var last *Snapshot
	if sub.last != nil {
		cp := *sub.last
		last = &cp
	}
	h.recordLocked()
	h.mu.Unlock()

	if !ok {
		if err := h.fetch(ctx, sub); err != nil {
			h.logger.WithError(err).WithField("query", key).Warn("initial live query failed")
		}
	} else if last != nil {
		l(*last)
	}

	var once sync.Once
	return func() {
		once.Do(func() { h.detach(sub, id) })
	}
}

func (h *Hub) detach(sub *subscription, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(sub.listeners, id)
	if len(sub.listeners) == 0 && h.subs[sub.key] == sub {
		delete(h.subs, sub.key)
	}
	h.recordLocked()
}

// Refresh re-runs every active query and fans the results out. It returns
// the first query error, which listeners have already received.
func (h *Hub) Refresh(ctx context.Context) error {
	start := time.Now()
	defer h.metrics.ObserveRefresh(start)

	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(8)
	for _, s := range subs {
		s := s
		g.Go(func() error { return h.fetch(ctx, s) })
	}
	return g.Wait()
}

// fetch loads sub's query and delivers the result unless a newer fetch has
// already been applied or the subscription was torn down meanwhile.
func (h *Hub) fetch(ctx context.Context, sub *subscription) error {
	h.mu.Lock()
	sub.issued++
	seq := sub.issued
	h.mu.Unlock()

	accounts, err := h.src.List(ctx, sub.query)

	h.mu.Lock()
	if h.subs[sub.key] != sub || seq <= sub.applied {
		h.mu.Unlock()
		return err
	}
	sub.applied = seq
	snap := Snapshot{Accounts: accounts, Err: err, At: time.Now()}
	if err != nil && sub.last != nil {
		snap.Accounts = sub.last.Accounts
	}
	sub.last = &snap
	listeners := make([]Listener, 0, len(sub.listeners))
	for _, l := range sub.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return err
}

// Stats reports the number of subscriptions and attached listeners.
func (h *Hub) Stats() (subscriptions, listeners int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.countLocked()
}

func (h *Hub) countLocked() (int, int) {
	n := 0
	for _, s := range h.subs {
		n += len(s.listeners)
	}
	return len(h.subs), n
}

func (h *Hub) recordLocked() {
	h.metrics.SetLive(h.countLocked())
}
