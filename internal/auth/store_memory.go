package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryCredentials is a process-local CredentialRepository.
type InMemoryCredentials struct {
	mu      sync.RWMutex
	byEmail map[string]*Credential
}

func NewInMemoryCredentials() *InMemoryCredentials {
	return &InMemoryCredentials{byEmail: make(map[string]*Credential)}
}

func (s *InMemoryCredentials) FindByEmail(_ context.Context, email string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryCredentials) Create(_ context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(c.Email)
	if _, ok := s.byEmail[key]; ok {
		return ErrEmailTaken
	}
	cp := *c
	cp.Email = key
	s.byEmail[key] = &cp
	return nil
}

func (s *InMemoryCredentials) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byEmail {
		if c.ID == id {
			c.PasswordHash = hash
			return nil
		}
	}
	return ErrUserNotFound
}

// InMemorySessions keeps sessions until they expire.
type InMemorySessions struct {
	mu       sync.Mutex
	sessions map[string]SessionRecord
	now      func() time.Time
}

func NewInMemorySessions() *InMemorySessions {
	return &InMemorySessions{sessions: make(map[string]SessionRecord), now: time.Now}
}

func (s *InMemorySessions) Save(_ context.Context, r SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[r.ID] = r
	return nil
}

func (s *InMemorySessions) Find(_ context.Context, id string) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !r.ExpiresAt.IsZero() && !s.now().Before(r.ExpiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &r, nil
}

func (s *InMemorySessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type InMemoryResetCodes struct {
	mu    sync.Mutex
	codes map[string]ResetCode
}

func NewInMemoryResetCodes() *InMemoryResetCodes {
	return &InMemoryResetCodes{codes: make(map[string]ResetCode)}
}

func (s *InMemoryResetCodes) Save(_ context.Context, c ResetCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[c.Code] = c
	return nil
}

func (s *InMemoryResetCodes) Find(_ context.Context, code string) (*ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	return &c, nil
}

func (s *InMemoryResetCodes) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
	return nil
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

type InMemoryAttempts struct {
	mu      sync.Mutex
	windows map[string]attemptWindow
	now     func() time.Time
}

func NewInMemoryAttempts() *InMemoryAttempts {
	return &InMemoryAttempts{windows: make(map[string]attemptWindow), now: time.Now}
}

func (s *InMemoryAttempts) Count(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(email).count, nil
}

func (s *InMemoryAttempts) Increment(_ context.Context, email string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.current(email)
	if w.count == 0 {
		w.resetAt = s.now().Add(window)
	}
	w.count++
	s.windows[email] = w
	return w.count, nil
}

func (s *InMemoryAttempts) Reset(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, email)
	return nil
}

func (s *InMemoryAttempts) current(email string) attemptWindow {
	w, ok := s.windows[email]
	if !ok {
		return attemptWindow{}
	}
	if !s.now().Before(w.resetAt) {
		delete(s.windows, email)
		return attemptWindow{}
	}
	return w
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ CredentialRepository = (*InMemoryCredentials)(nil)
	_ SessionStore         = (*InMemorySessions)(nil)
	_ ResetCodeStore       = (*InMemoryResetCodes)(nil)
	_ AttemptCounter       = (*InMemoryAttempts)(nil)
)
