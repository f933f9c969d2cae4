package store

import (
	"context"
	"sort"
	"sync"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

// InMemoryAccountStore is a process-local AccountStore used by tests and
// local runs without MongoDB.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewInMemory(seed ...models.Account) *InMemoryAccountStore {
	s := &InMemoryAccountStore{accounts: make(map[string]models.Account, len(seed))}
	for _, a := range seed {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *InMemoryAccountStore) Get(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *InMemoryAccountStore) List(_ context.Context, q Query) ([]models.Account, error) {
	s.mu.RLock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if matches(&a, q) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryAccountStore) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return ErrAlreadyExists
	}
	s.accounts[a.ID] = *a
	return nil
}

func (s *InMemoryAccountStore) Update(_ context.Context, id string, fields models.Fields) error {
	if len(fields) == 0 {
		return ErrEmptyUpdate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		apply(&a, k, v)
	}
	s.accounts[id] = a
	return nil
}

func (s *InMemoryAccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func matches(a *models.Account, q Query) bool {
	for _, c := range q.Conditions {
		v, ok := fieldValue(a, c.Field)
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

// fieldValue mirrors the bson field names of models.Account for the fields
// queries filter on.
func fieldValue(a *models.Account, field string) (any, bool) {
	switch field {
	case "_id":
		return a.ID, true
	case "email":
		return a.Email, true
	case "role":
		return string(a.Role), true
	case "verified":
		return a.Verified, true
	case "rejected":
		return a.Rejected, true
	case "reviewStatus":
		return a.ReviewStatus, true
	}
	return nil, false
}

func apply(a *models.Account, field string, v any) {
	switch field {
	case "verified":
		a.Verified, _ = v.(bool)
	case "rejected":
		a.Rejected, _ = v.(bool)
	case "name":
		a.Name, _ = v.(string)
	case "lastName":
		a.LastName, _ = v.(string)
	case "phone":
		a.Phone, _ = v.(string)
	case "address":
		a.Address, _ = v.(string)
	case "clinicAddress":
		a.ClinicAddress, _ = v.(string)
	case "reviewStatus":
		a.ReviewStatus, _ = v.(string)
	}
}

var _ AccountStore = (*InMemoryAccountStore)(nil)
