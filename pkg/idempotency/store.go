package idempotency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Header carries the client-generated idempotency token.
const Header = "Idempotency-Key"

// FromRequest returns the trimmed idempotency token of r, or "".
func FromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(scope, token string) string {
	return fmt.Sprintf("idem:%s:%s", scope, token)
}

// Claim binds key to value for the store's TTL unless key is already bound.
// It returns the value bound to key and whether this call created the binding.
func (s *Store) Claim(ctx context.Context, key, value string) (string, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, key, value, s.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
		existing, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SetNX and Get
			continue
		}
		if err != nil {
			return "", false, err
		}
		return existing, false, nil
	}
	return "", false, fmt.Errorf("idempotency key %s kept expiring", key)
}

// Release drops a binding whose owner failed before completing.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
