// Package prefs stores per-user preference blobs in redis under fixed keys.
// Preferences are configuration, not part of the task/day core: they are read
// on demand and written on change, with no derived state behind them.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"daily-charge/internal/apperr"
)

// The only preference keys the client may read or write.
const (
	KeyTheme                = "theme"
	KeyFontSize             = "fontSize"
	KeyNotificationSettings = "notificationSettings"
)

var knownKeys = map[string]bool{
	KeyTheme:                true,
	KeyFontSize:             true,
	KeyNotificationSettings: true,
}

// Store reads and writes preference blobs for users.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect builds a redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Get returns the stored blob for one key, or nil when unset.
func (s *Store) Get(ctx context.Context, userID, key string) (json.RawMessage, error) {
	if !knownKeys[key] {
		return nil, apperr.Validation("key", "unknown preference key")
	}
	raw, err := s.rdb.Get(ctx, prefKey(userID, key)).Bytes()
	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, redis.Nil):
		return nil, nil
	default:
		return nil, apperr.Store("read preference", err)
	}
}

// Set overwrites the blob for one key. The value must be valid JSON.
func (s *Store) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	if !knownKeys[key] {
		return apperr.Validation("key", "unknown preference key")
	}
	if !json.Valid(value) {
		return apperr.Validation("value", "must be valid JSON")
	}
	if err := s.rdb.Set(ctx, prefKey(userID, key), []byte(value), 0).Err(); err != nil {
		return apperr.Store("write preference", err)
	}
	return nil
}

// All returns every set preference for the user.
func (s *Store) All(ctx context.Context, userID string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(knownKeys))
	for key := range knownKeys {
		value, err := s.Get(ctx, userID, key)
		if err != nil {
			return nil, err
		}
		if value != nil {
			out[key] = value
		}
	}
	return out, nil
}

func prefKey(userID, key string) string {
	return fmt.Sprintf("prefs:%s:%s", userID, key)
}
