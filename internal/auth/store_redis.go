package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "admin:session:"
	resetCodeKeyPrefix = "pwd:reset:code:"
	failedKeyPrefix    = "auth:failed:"
)

func sessionKey(id string) string     { return sessionKeyPrefix + id }
func resetCodeKey(code string) string { return resetCodeKeyPrefix + code }
func failedKey(email string) string   { return failedKeyPrefix + email }

// RedisSessions stores session records as JSON with the session lifetime as TTL.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (s *RedisSessions) Save(ctx context.Context, r SessionRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(r.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKey(r.ID), b, ttl).Err()
}

func (s *RedisSessions) Find(ctx context.Context, id string) (*SessionRecord, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var r SessionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &r, nil
}

func (s *RedisSessions) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

type RedisResetCodes struct {
	client *redis.Client
}

func NewRedisResetCodes(client *redis.Client) *RedisResetCodes {
	return &RedisResetCodes{client: client}
}

func (s *RedisResetCodes) Save(ctx context.Context, c ResetCode) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode reset code: %w", err)
	}
	ttl := time.Until(c.ExpiresAt) + ResetCodeRetention
	return s.client.Set(ctx, resetCodeKey(c.Code), b, ttl).Err()
}

func (s *RedisResetCodes) Find(ctx context.Context, code string) (*ResetCode, error) {
	raw, err := s.client.Get(ctx, resetCodeKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("get reset code: %w", err)
	}
	var c ResetCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode reset code: %w", err)
	}
	return &c, nil
}

func (s *RedisResetCodes) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, resetCodeKey(code)).Err()
}

// RedisAttempts counts failures with INCR; the first failure sets the expiry.
type RedisAttempts struct {
	client *redis.Client
}

func NewRedisAttempts(client *redis.Client) *RedisAttempts {
	return &RedisAttempts{client: client}
}

func (s *RedisAttempts) Count(ctx context.Context, email string) (int, error) {
	n, err := s.client.Get(ctx, failedKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *RedisAttempts) Increment(ctx context.Context, email string, window time.Duration) (int, error) {
	key := failedKey(email)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count failed sign-in: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisAttempts) Reset(ctx context.Context, email string) error {
	return s.client.Del(ctx, failedKey(email)).Err()
}

var (
	_ SessionStore   = (*RedisSessions)(nil)
	_ ResetCodeStore = (*RedisResetCodes)(nil)
	_ AttemptCounter = (*RedisAttempts)(nil)
)
