package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemoryAccountStore
	ctx   context.Context
	now   time.Time
}

func (s *AccountStoreSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemory(
		models.Account{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin, Verified: true, CreatedAt: s.now.Add(-3 * time.Hour)},
		models.Account{ID: "d1", Email: "doc1@example.com", Role: models.RoleDoctor, CreatedAt: s.now.Add(-2 * time.Hour)},
		models.Account{ID: "d2", Email: "doc2@example.com", Role: models.RoleDoctor, Verified: true, CreatedAt: s.now.Add(-1 * time.Hour)},
		models.Account{ID: "p1", Email: "pat@example.com", Role: models.RolePatient, CreatedAt: s.now},
	)
	s.ctx = context.Background()
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func ids(accounts []models.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ID)
	}
	return out
}

func (s *AccountStoreSuite) TestList() {
	s.Run("empty query returns every account newest first", func() {
		got, err := s.store.List(s.ctx, Query{})
		s.Require().NoError(err)
		s.Equal([]string{"p1", "d2", "d1", "a1"}, ids(got))
	})

	s.Run("role and verified conditions are combined", func() {
		got, err := s.store.List(s.ctx, Where(Eq("role", models.RoleDoctor), Eq("verified", false)))
		s.Require().NoError(err)
		s.Equal([]string{"d1"}, ids(got))
	})

	s.Run("unknown field matches nothing", func() {
		got, err := s.store.List(s.ctx, Where(Eq("nickname", "x")))
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *AccountStoreSuite) TestGet() {
	s.Run("returns a copy", func() {
		a, err := s.store.Get(s.ctx, "d1")
		s.Require().NoError(err)
		a.Name = "changed"

		again, err := s.store.Get(s.ctx, "d1")
		s.Require().NoError(err)
		s.Empty(again.Name)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Get(s.ctx, "missing")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestUpdate() {
	s.Run("applies fields", func() {
		s.Require().NoError(s.store.Update(s.ctx, "d1", models.Fields{"verified": true, "rejected": false, "name": "Ana"}))

		a, err := s.store.Get(s.ctx, "d1")
		s.Require().NoError(err)
		s.True(a.Verified)
		s.Equal("Ana", a.Name)
	})

	s.Run("unknown id", func() {
		s.ErrorIs(s.store.Update(s.ctx, "missing", models.Fields{"verified": true}), ErrNotFound)
	})

	s.Run("empty update", func() {
		s.ErrorIs(s.store.Update(s.ctx, "d1", models.Fields{}), ErrEmptyUpdate)
	})
}

func (s *AccountStoreSuite) TestCreateAndDelete() {
	s.Require().NoError(s.store.Create(s.ctx, &models.Account{ID: "n1", Role: models.RolePatient}))
	s.ErrorIs(s.store.Create(s.ctx, &models.Account{ID: "n1"}), ErrAlreadyExists)

	s.Require().NoError(s.store.Delete(s.ctx, "n1"))
	s.ErrorIs(s.store.Delete(s.ctx, "n1"), ErrNotFound)
}

func TestQueryKey(t *testing.T) {
	suite.Run(t, new(queryKeySuite))
}

type queryKeySuite struct{ suite.Suite }

func (s *queryKeySuite) TestOrderIndependent() {
	a := Where(Eq("role", models.RoleDoctor), Eq("verified", false))
	b := Where(Eq("verified", false), Eq("role", "doctor"))
	s.Equal(a.Key(), b.Key())
	s.Equal("*", Query{}.Key())
	s.NotEqual(a.Key(), Where(Eq("role", "doctor")).Key())
}
