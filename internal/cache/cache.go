// Package cache stores drafting results and IBAN lookups between requests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/astadocs/internal/common"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New picks Redis when an address is configured and the in-process cache
// otherwise.
func New(cfg common.CacheConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		logger.Info("cache.memory.selected")
		return NewMemoryClient(0), nil
	}
	c, err := NewRedisClient(RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("cache.redis.selected", "addr", cfg.Addr, "db", cfg.DB)
	return c, nil
}

// Key joins key components with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// HashKey is Key for components too large to embed, such as document text.
func HashKey(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return Key(namespace, hex.EncodeToString(h.Sum(nil)))
}
