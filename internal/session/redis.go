package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lifelog:import:session:"

// RedisStore keeps sessions as JSON strings with a Redis-side expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return keyPrefix + id }

func (s *RedisStore) Save(ctx context.Context, p Pending) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(p.ID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	return p.ID, nil
}

func (s *RedisStore) Load(ctx context.Context, userID, id string) (Pending, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrSessionNotFound
	}
	if err != nil {
		return Pending{}, fmt.Errorf("loading session: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pending{}, fmt.Errorf("decoding session: %w", err)
	}
	if p.UserID != userID {
		return Pending{}, ErrSessionNotFound
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
