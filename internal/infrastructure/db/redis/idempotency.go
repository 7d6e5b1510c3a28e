package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/messagely/messagely-api/internal/core/domain"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	pendingMarker         = "pending"
)

// IdempotencyStore maps a client-supplied Idempotency-Key to the message it
// created. Keys are scoped per sender.
// Key format: idem:msg:<lower(username)>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl selects the default.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with a pending marker. If the key already holds a
// message id, that id is returned; if it is still pending,
// domain.ErrRequestInProgress is returned.
func (s *IdempotencyStore) Reserve(ctx context.Context, username, key string) (int64, bool, error) {
	k := s.key(username, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	v, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, fmt.Errorf("idempotency reserve: key %q expired", k)
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if v == pendingMarker {
		return 0, false, domain.ErrRequestInProgress
	}

	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: corrupt value %q: %w", v, err)
	}
	return id, false, nil
}

// Remember replaces the pending marker with messageID.
func (s *IdempotencyStore) Remember(ctx context.Context, username, key string, messageID int64) error {
	return s.client.Set(ctx, s.key(username, key), messageID, s.ttl).Err()
}

// Release drops the key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, username, key string) error {
	return s.client.Del(ctx, s.key(username, key)).Err()
}

func (s *IdempotencyStore) key(username, key string) string {
	return fmt.Sprintf("idem:msg:%s:%s", strings.ToLower(username), key)
}
