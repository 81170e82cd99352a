// Package watchlist persists the client's watchlist through an opaque KV
// store. The pipeline itself never reads it; it exists purely as a filter
// predicate for the UI.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trenchpulse/trenchpulse/internal/domain"
	"github.com/trenchpulse/trenchpulse/internal/sanitize"
)

// Key is the single KV slot the watchlist lives under.
const Key = "na_watchlist"

// ErrInvalidAddress rejects non-Solana addresses before they reach storage.
var ErrInvalidAddress = errors.New("invalid solana address")

// KV is the opaque put/get surface the store is oblivious beyond.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// RedisKV adapts a redis client to the KV surface.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects a KV backed by redis at addr.
func NewRedisKV(addr string) *RedisKV {
	return &RedisKV{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Get returns the stored value, or empty when the key is missing.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set stores the value without expiry.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Store reads and writes the watchlist as one JSON document.
type Store struct {
	kv KV
}

// NewStore builds a store over any KV.
func NewStore(kv KV) *Store { return &Store{kv: kv} }

// List returns the current entries; a missing key is an empty list.
func (s *Store) List(ctx context.Context) ([]domain.WatchlistEntry, error) {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("watchlist get: %w", err)
	}
	if raw == "" {
		return []domain.WatchlistEntry{}, nil
	}
	var entries []domain.WatchlistEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// A corrupt document resets rather than wedging the client.
		return []domain.WatchlistEntry{}, nil
	}
	return entries, nil
}

// Add appends an entry, deduplicating by address.
func (s *Store) Add(ctx context.Context, entry domain.WatchlistEntry) error {
	if !sanitize.IsSolanaAddress(entry.Address) {
		return ErrInvalidAddress
	}
	entry.Symbol = sanitize.Truncate(entry.Symbol, sanitize.MaxSymbolLen)
	entry.Name = sanitize.Truncate(entry.Name, sanitize.MaxNameLen)
	if entry.AddedAt == 0 {
		entry.AddedAt = time.Now().UnixMilli()
	}

	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Address == entry.Address {
			return nil
		}
	}
	entries = append(entries, entry)
	return s.put(ctx, entries)
}

// Remove drops the entry with the given address, if present.
func (s *Store) Remove(ctx context.Context, address string) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Address != address {
			out = append(out, e)
		}
	}
	return s.put(ctx, out)
}

func (s *Store) put(ctx context.Context, entries []domain.WatchlistEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("watchlist marshal: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("watchlist put: %w", err)
	}
	return nil
}
