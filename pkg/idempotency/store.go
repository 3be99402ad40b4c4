package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingValue = "pending"

var ErrInProgress = errors.New("request with this idempotency key is in progress")

// Store remembers processed keys in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// RequestKey scopes a client key to the buyer and to the body it came with,
// so the same key sent with another body is a different request.
func RequestKey(scope, userID, key, fingerprint string) string {
	return fmt.Sprintf("idem:%s:%s:%s:%s", scope, userID, key, fingerprint)
}

// Fingerprint is the hex SHA-256 of v's JSON encoding.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *Store) Processed(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed records key for the store TTL. Call it only after the work
// behind key is done: a crash before that point leaves the key free.
func (s *Store) MarkProcessed(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}

// Begin claims key for a new request. When the key already completed it
// returns the stored result; while another request holds it, ErrInProgress.
func (s *Store) Begin(ctx context.Context, key string) (result string, done bool, err error) {
	ok, err := s.rdb.SetNX(ctx, key, pendingValue, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", false, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Begin(ctx, key)
	}
	if err != nil {
		return "", false, err
	}
	if val == pendingValue {
		return "", false, ErrInProgress
	}
	return val, true, nil
}

func (s *Store) Complete(ctx context.Context, key, result string) error {
	return s.rdb.Set(ctx, key, result, s.ttl).Err()
}

// Abort releases a claimed key so the request can be retried.
func (s *Store) Abort(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
