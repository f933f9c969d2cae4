// Package store is the document store holding account records.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
	ErrEmptyUpdate   = errors.New("no fields to update")
)

// Condition is a single field equality match.
type Condition struct {
	Field string
	Value any
}

// Eq builds an equality condition. Typed strings are stored as plain strings.
func Eq(field string, value any) Condition {
	if r, ok := value.(models.Role); ok {
		value = string(r)
	}
	return Condition{Field: field, Value: value}
}

// Query is a conjunction of equality conditions. The zero Query matches every
// account.
type Query struct {
	Conditions []Condition
}

func Where(conds ...Condition) Query {
	return Query{Conditions: conds}
}

// Key identifies queries that select the same records, independent of
// condition order.
func (q Query) Key() string {
	if len(q.Conditions) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		parts = append(parts, fmt.Sprintf("%s=%v", c.Field, c.Value))
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

// AccountStore is the document store surface the dashboard consumes.
type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, q Query) ([]models.Account, error)
	Create(ctx context.Context, a *models.Account) error
	Update(ctx context.Context, id string, fields models.Fields) error
	Delete(ctx context.Context, id string) error
}
