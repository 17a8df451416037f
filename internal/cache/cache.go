// Package cache implements the Aggregator's per-(ticker,operation,source)
// write-through cache: a Redis-backed store with per-operation TTLs and a
// stale-fallback window, generalized from the teacher's single-purpose
// CachedCoinGeckoClient into one reusable store for every snapshot field.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// StaleMultiplier is how many multiples of the normal TTL a cache entry may
// still be served as a "stale" fallback after full provider-chain failure.
const StaleMultiplier = 10

// Store is a write-through TTL cache keyed by arbitrary strings. Values are
// stored as an envelope carrying the write time, so staleness can be judged
// against the logical TTL independently of Redis's own eviction (which uses
// the wider stale window so the key survives long enough to be read stale).
type Store struct {
	redis *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Store {
	return &Store{redis: client}
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Result describes what Get found.
type Result struct {
	Hit   bool
	Stale bool
}

// Get looks up key and decodes its value into out. If the entry exists but
// is older than ttl (while still within ttl*StaleMultiplier, the window
// Set stored it for), Result.Stale is true.
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration, out any) Result {
	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("cache lookup error")
		}
		return Result{}
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache envelope corrupt, ignoring")
		return Result{}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache payload unmarshal failed, ignoring")
		return Result{}
	}

	age := time.Since(env.StoredAt)
	return Result{Hit: true, Stale: age > ttl}
}

// Set writes value under key, asynchronously, with an eviction window of
// ttl*StaleMultiplier so stale reads remain possible after the logical TTL
// has elapsed but before the record is fully evicted.
func (s *Store) Set(key string, ttl time.Duration, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to marshal value for cache")
		return
	}
	env := envelope{StoredAt: time.Now().UTC(), Data: data}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to marshal cache envelope")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Set(ctx, key, payload, ttl*StaleMultiplier).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to write cache entry")
		}
	}()
}

// Health checks Redis connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
