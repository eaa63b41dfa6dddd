package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultRetryInterval = 10 * time.Second
)

// entry is one fetched snapshot and the moment it was fetched upstream
type entry struct {
	snapshot  domain.Snapshot
	fetchedAt time.Time
}

// Options configures a Cache
type Options struct {
	TTL           time.Duration
	RetryInterval time.Duration // Minimum gap between upstream attempts after a failure; 0 disables
	Clock         domain.Clock
}

// Cache holds the most recent catalog snapshot.
// The entry pointer is replaced only after a listing is fully mapped, so readers
// see either the previous snapshot or the new one, never a partial one.
type Cache struct {
	source domain.CatalogSource
	store  domain.SnapshotStore
	clock  domain.Clock
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	current *entry
	failing bool

	group   singleflight.Group
	limiter *rate.Limiter
}

// NewCache creates a catalog cache over source. store may be nil; when set,
// the cache is seeded from the mirrored snapshot and every successful fetch is
// written back.
func NewCache(source domain.CatalogSource, store domain.SnapshotStore, opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}

	c := &Cache{
		source: source,
		store:  store,
		clock:  opts.Clock,
		ttl:    opts.TTL,
		logger: logger,
	}
	if opts.RetryInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.RetryInterval), 1)
	}

	if store != nil {
		if snap, fetchedAt, ok := store.LoadSnapshot(); ok {
			c.current = &entry{snapshot: snap, fetchedAt: fetchedAt}
			logger.Debug("catalog seeded from store", "count", snap.Len(), "fetchedAt", fetchedAt)
		}
	}

	return c
}

// Current returns the cached snapshot without touching the network.
// Empty when nothing has been fetched yet.
func (c *Cache) Current() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return domain.Snapshot{}
	}
	return c.current.snapshot
}

// FetchedAt returns when the cached snapshot was fetched upstream
func (c *Cache) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return time.Time{}, false
	}
	return c.current.fetchedAt, true
}

// fresh returns the cached snapshot if it is younger than the TTL
func (c *Cache) fresh() (domain.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return domain.Snapshot{}, false
	}
	if c.clock.Now().Sub(c.current.fetchedAt) >= c.ttl {
		return domain.Snapshot{}, false
	}
	return c.current.snapshot, true
}

// RefreshIfStale returns the cached snapshot when fresh, ignoring limit.
// Otherwise it fetches limit stories upstream; on failure the previous
// snapshot (or an empty one) is returned.
func (c *Cache) RefreshIfStale(ctx context.Context, limit int) domain.Snapshot {
	if snap, ok := c.fresh(); ok {
		return snap
	}
	return c.Refresh(ctx, limit)
}

// Refresh fetches from upstream regardless of freshness.
// Concurrent refreshes for the same limit share one upstream request.
func (c *Cache) Refresh(ctx context.Context, limit int) domain.Snapshot {
	v, err, shared := c.group.Do(strconv.Itoa(limit), func() (interface{}, error) {
		return c.fetch(ctx, limit)
	})
	if err != nil {
		if errors.Is(err, domain.ErrThrottled) {
			c.logger.Debug("catalog refresh skipped", "limit", limit, "error", err)
		} else {
			c.logger.Warn("catalog refresh failed, serving previous snapshot", "limit", limit, "error", err)
		}
		return c.Current()
	}
	if shared {
		c.logger.Debug("catalog refresh coalesced", "limit", limit)
	}
	return v.(domain.Snapshot)
}

func (c *Cache) fetch(ctx context.Context, limit int) (domain.Snapshot, error) {
	if !c.allowAttempt() {
		return domain.Snapshot{}, fmt.Errorf("%w: retry after failure not yet due", domain.ErrThrottled)
	}

	start := c.clock.Now()
	stories, err := c.source.ListStories(ctx, limit)
	if err != nil {
		c.markFailed()
		return domain.Snapshot{}, err
	}

	snap := domain.NewSnapshot(stories)
	fetchedAt := c.clock.Now()

	c.mu.Lock()
	c.current = &entry{snapshot: snap, fetchedAt: fetchedAt}
	c.failing = false
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", "count", snap.Len(), "limit", limit, "duration", fetchedAt.Sub(start))

	if c.store != nil {
		if err := c.store.SaveSnapshot(snap, fetchedAt); err != nil {
			c.logger.Warn("failed to mirror catalog snapshot", "error", err)
		}
	}
	return snap, nil
}

// allowAttempt consults the limiter only while the source is failing
func (c *Cache) allowAttempt() bool {
	if c.limiter == nil {
		return true
	}
	c.mu.RLock()
	failing := c.failing
	c.mu.RUnlock()
	if !failing {
		return true
	}
	return c.limiter.AllowN(c.clock.Now(), 1)
}

func (c *Cache) markFailed() {
	c.mu.Lock()
	wasFailing := c.failing
	c.failing = true
	c.mu.Unlock()

	// The failed attempt spends the burst so the next one waits a full interval
	if !wasFailing && c.limiter != nil {
		c.limiter.AllowN(c.clock.Now(), 1)
	}
}

// Clear drops the cached snapshot and its mirror
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}
