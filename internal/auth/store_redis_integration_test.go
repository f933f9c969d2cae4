//go:build integration

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestSessions() {
	store := auth.NewRedisSessions(s.redis.Client)
	rec := auth.SessionRecord{ID: "sid-1", UserID: "uid-1", Email: "a@example.com", ExpiresAt: time.Now().Add(time.Minute)}

	s.Require().NoError(store.Save(s.ctx, rec))
	got, err := store.Find(s.ctx, "sid-1")
	s.Require().NoError(err)
	s.Equal("uid-1", got.UserID)

	ttl, err := s.redis.Client.TTL(s.ctx, "admin:session:sid-1").Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, time.Minute)

	s.Require().NoError(store.Delete(s.ctx, "sid-1"))
	_, err = store.Find(s.ctx, "sid-1")
	s.ErrorIs(err, auth.ErrSessionNotFound)
}

func (s *RedisStoreSuite) TestResetCodesOutliveExpiry() {
	store := auth.NewRedisResetCodes(s.redis.Client)
	rc := auth.ResetCode{Code: "c1", Email: "a@example.com", ExpiresAt: time.Now().Add(-time.Minute)}

	s.Require().NoError(store.Save(s.ctx, rc))
	got, err := store.Find(s.ctx, "c1")
	s.Require().NoError(err)
	s.True(got.ExpiresAt.Before(time.Now()))

	_, err = store.Find(s.ctx, "missing")
	s.ErrorIs(err, auth.ErrInvalidCode)
}

func (s *RedisStoreSuite) TestAttempts() {
	store := auth.NewRedisAttempts(s.redis.Client)

	n, err := store.Count(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Zero(n)

	for i := 1; i <= 3; i++ {
		n, err = store.Increment(s.ctx, "a@example.com", time.Minute)
		s.Require().NoError(err)
		s.Equal(i, n)
	}

	n, err = store.Count(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Equal(3, n)

	s.Require().NoError(store.Reset(s.ctx, "a@example.com"))
	n, err = store.Count(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Zero(n)
}
