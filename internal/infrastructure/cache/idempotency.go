// Package cache stores rendered responses for Idempotency-Key replay.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gcci/certgen/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Entry is a stored render result.
type Entry struct {
	PayloadHash string    `json:"payload_hash"`
	PDF         []byte    `json:"pdf"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IdempotencyStore keeps entries for a bounded time.
type IdempotencyStore interface {
	// Get returns the live entry for key, or nil.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put stores e unless a live entry exists. It reports whether e was stored.
	Put(ctx context.Context, key string, e *Entry, ttl time.Duration) (bool, error)
	Close() error
}

// HashPayload fingerprints a request payload.
func HashPayload(v any) (string, error) {
	// encoding/json sorts map keys, so equal payloads hash equally.
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hashing payload: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// NewIdempotencyStore builds the configured backend.
func NewIdempotencyStore(cfg config.IdempotencyConfig, redisCfg config.RedisConfig, logger *zap.Logger) (IdempotencyStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewInMemoryIdempotencyStore(cfg.MaxItems), nil
	case "redis":
		store, err := NewRedisIdempotencyStore(redisCfg, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis idempotency store", zap.String("addr", redisCfg.Addr()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
