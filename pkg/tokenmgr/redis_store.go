package tokenmgr

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis for headless consumers (workers,
// server-to-server integrations) that hold one Me Feed session per
// principal. The pair lives under two fixed keys in a namespace; writes go
// through MULTI/EXEC and reads through MGET so the pair is always observed
// as a unit.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. The prefix isolates sessions
// of different principals, e.g. "mefeed:session:user42".
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("tokenmgr: redis client is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("tokenmgr: redis key prefix is required")
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) accessKey() string  { return s.prefix + ":access_token" }
func (s *RedisStore) refreshKey() string { return s.prefix + ":refresh_token" }

// Load reads both tokens in a single MGET.
func (s *RedisStore) Load(ctx context.Context) (Credentials, error) {
	vals, err := s.client.MGet(ctx, s.accessKey(), s.refreshKey()).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("tokenmgr: redis load: %w", err)
	}

	creds := Credentials{
		AccessToken:  stringOrEmpty(vals[0]),
		RefreshToken: stringOrEmpty(vals[1]),
	}
	if !creds.Valid() {
		// A half-present pair means a write was interrupted outside of
		// MULTI/EXEC; treat it the same as no session.
		return Credentials{}, ErrNoCredentials
	}

	return creds, nil
}

// Save writes both tokens inside one transaction.
func (s *RedisStore) Save(ctx context.Context, creds Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey(), creds.AccessToken, 0)
		pipe.Set(ctx, s.refreshKey(), creds.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("tokenmgr: redis save: %w", err)
	}
	return nil
}

// Clear deletes both tokens inside one transaction.
func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.accessKey(), s.refreshKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("tokenmgr: redis clear: %w", err)
	}
	return nil
}

func stringOrEmpty(v any) string {
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return str
}
