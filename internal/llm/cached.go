package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/astadocs/internal/cache"
)

// CachedDrafter memoizes valid drafts. The same document text sent twice
// costs one model call.
type CachedDrafter struct {
	Next   Drafter
	Cache  cache.Client
	TTL    time.Duration
	Logger *slog.Logger
}

// NewCachedDrafter wraps next with c.
func NewCachedDrafter(next Drafter, c cache.Client, ttl time.Duration, logger *slog.Logger) *CachedDrafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDrafter{Next: next, Cache: c, TTL: ttl, Logger: logger}
}

// Draft implements Drafter.
func (d *CachedDrafter) Draft(ctx context.Context, req DraftRequest) (DraftResult, error) {
	key := cache.HashKey("draft", string(req.Kind), SchemaFor(req.Kind).Name, req.Text, req.ImageDataURL)

	if raw, err := d.Cache.Get(ctx, key); err == nil {
		d.Logger.Debug("draft.cache.hit", "file", req.FileID, "kind", req.Kind)
		return DraftResult{Raw: raw, Model: "cache", Valid: true}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		d.Logger.Warn("draft.cache.get_failed", "file", req.FileID, "error", err)
	}

	res, err := d.Next.Draft(ctx, req)
	if err != nil {
		return res, err
	}
	if res.Valid {
		if err := d.Cache.Set(ctx, key, res.Raw, d.TTL); err != nil {
			d.Logger.Warn("draft.cache.set_failed", "file", req.FileID, "error", err)
		}
	}
	return res, nil
}
