package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists consent records in Redis so multiple request
// workers share one consent truth. When a TTL is configured the grant
// simply expires server-side.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(url string, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) key(sessionID string) string {
	if s.prefix == "" {
		return "consent:" + sessionID
	}
	return s.prefix + ":consent:" + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read consent record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode consent record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, explicitAllowed bool, reason string) error {
	prev, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	rec := Record{
		ExplicitAllowed: explicitAllowed,
		Reason:          reason,
	}
	if prev != nil {
		rec.GrantedAt = prev.GrantedAt
	}
	if explicitAllowed && (prev == nil || !prev.ExplicitAllowed) {
		rec.GrantedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal consent record: %w", err)
	}

	// Revocations are kept without expiry; only grants age out.
	ttl := time.Duration(0)
	if explicitAllowed {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write consent record: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
