package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ape-plugins/internal/logging"
)

// DefaultTTL is how long a cached listing stays fresh.
const DefaultTTL = time.Hour

// cacheEntry is the on-disk form of a cached listing.
type cacheEntry struct {
	FetchedAt int64    `json:"fetched_at"`
	Plugins   []string `json:"plugins"`
}

// Cached stores another registry's listing on disk.
type Cached struct {
	inner  Registry
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger hclog.Logger
}

// CacheOption configures a Cached registry.
type CacheOption func(*Cached)

// WithTTL sets the freshness window. Zero disables caching reads.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cached) {
		c.ttl = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cached) {
		c.now = now
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l hclog.Logger) CacheOption {
	return func(c *Cached) {
		c.logger = l
	}
}

// NewCached wraps inner with a cache stored at dir/<key>.json.
func NewCached(inner Registry, dir, key string, opts ...CacheOption) *Cached {
	c := &Cached{
		inner: inner,
		path:  filepath.Join(dir, fmt.Sprintf("%s.json", key)),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger).Named("registry.cache")
	return c
}

// Path returns the cache file location.
func (c *Cached) Path() string {
	return c.path
}

// Available serves a fresh cache when present, otherwise asks the wrapped
// registry. A stale cache is still used when the registry cannot be reached.
func (c *Cached) Available(ctx context.Context) ([]string, error) {
	entry, cacheErr := c.load()
	if cacheErr == nil && c.fresh(entry) {
		c.logger.Debug("using cached plugin list", "path", c.path)
		return entry.Plugins, nil
	}

	plugins, err := c.inner.Available(ctx)
	if err != nil {
		if cacheErr == nil {
			c.logger.Warn("registry unavailable, using stale cache", "error", err)
			return entry.Plugins, nil
		}
		return nil, err
	}

	if err := c.save(plugins); err != nil {
		c.logger.Warn("failed to write plugin cache", "path", c.path, "error", err)
	}
	return plugins, nil
}

// Invalidate removes the cache file.
func (c *Cached) Invalidate() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	return nil
}

func (c *Cached) fresh(e *cacheEntry) bool {
	return c.ttl > 0 && c.now().Unix()-e.FetchedAt < int64(c.ttl.Seconds())
}

func (c *Cached) load() (*cacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}

	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse cache: %w", err)
	}
	return &e, nil
}

func (c *Cached) save(plugins []string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cacheEntry{FetchedAt: c.now().Unix(), Plugins: plugins}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
