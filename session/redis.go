package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "phenyl:session:"

// RedisStore is a [Store] backed by Redis. Each session lives under one key
// whose TTL matches the session expiry, so Redis itself enforces expiry and
// Get never observes a lapsed session.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. An empty prefix selects
// "phenyl:session:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get resolves a session id. A missing or expired key yields (nil, nil).
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session get: corrupt record %q: %w", id, err)
	}
	return &sess, nil
}

// Create materializes a pre-session under a fresh identifier. The key TTL is
// derived from the pre-session expiry.
func (s *RedisStore) Create(ctx context.Context, pre PreSession) (*Session, error) {
	ttl := time.Until(pre.ExpiredAt)
	if ttl <= 0 {
		return nil, ErrExpiredPreSession
	}

	sess := &Session{
		ID:         uuid.NewString(),
		EntityName: pre.EntityName,
		UserID:     pre.UserID,
		ExpiredAt:  pre.ExpiredAt,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error; the
// boolean reports whether a record existed. Idempotent.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session delete: %w", err)
	}
	return n > 0, nil
}
