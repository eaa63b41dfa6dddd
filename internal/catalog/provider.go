package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/reel/internal/domain"
)

// DefaultLimit is the listing size used by lookups that do not name one
const DefaultLimit = 10

// Provider answers catalog queries from the shared cache
type Provider struct {
	cache        *Cache
	defaultLimit int
	logger       *slog.Logger
}

// NewProvider creates a provider over cache
func NewProvider(cache *Cache, defaultLimit int, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Provider{
		cache:        cache,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// FetchCatalog returns the current snapshot, fetching limit stories when the
// cache is stale. A fresh cache is returned as is, whatever limit was asked.
// Upstream failures are never surfaced: the previous or an empty snapshot is returned.
func (p *Provider) FetchCatalog(ctx context.Context, limit int) domain.Snapshot {
	if limit <= 0 {
		limit = p.defaultLimit
	}
	return p.cache.RefreshIfStale(ctx, limit)
}

// Refresh forces an upstream fetch of limit stories
func (p *Provider) Refresh(ctx context.Context, limit int) domain.Snapshot {
	if limit <= 0 {
		limit = p.defaultLimit
	}
	return p.cache.Refresh(ctx, limit)
}

// Current returns the cached snapshot without touching the network
func (p *Provider) Current() domain.Snapshot {
	return p.cache.Current()
}

// FindByID looks id up in the catalog
func (p *Provider) FindByID(ctx context.Context, id string) (domain.Story, error) {
	return findByID(p.FetchCatalog(ctx, p.defaultLimit), id)
}

// Neighbor returns the id next to id in direction dir, wrapping at both ends
func (p *Provider) Neighbor(ctx context.Context, id string, dir domain.Direction) (string, error) {
	next, err := neighbor(p.FetchCatalog(ctx, p.defaultLimit), id, dir)
	if err != nil {
		p.logger.Debug("neighbor lookup failed", "id", id, "direction", dir, "error", err)
	}
	return next, err
}

// Position returns the zero-based index of id and the catalog size
func (p *Provider) Position(ctx context.Context, id string) (int, int, bool) {
	return position(p.FetchCatalog(ctx, p.defaultLimit), id)
}

// Head returns the first story, the landing point when navigation has nowhere to go
func (p *Provider) Head(ctx context.Context) (domain.Story, error) {
	return head(p.FetchCatalog(ctx, p.defaultLimit))
}

// Pin returns a navigator bound to the cached snapshot. It never fetches.
func (p *Provider) Pin() *Pinned {
	return NewPinned(p.cache.Current())
}

func findByID(snap domain.Snapshot, id string) (domain.Story, error) {
	story, ok := snap.Find(id)
	if !ok {
		return domain.Story{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return story, nil
}

func neighbor(snap domain.Snapshot, id string, dir domain.Direction) (string, error) {
	next, ok := snap.Neighbor(id, dir)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrStoryNotFound, id)
	}
	return next, nil
}

func position(snap domain.Snapshot, id string) (int, int, bool) {
	i := snap.IndexOf(id)
	if i < 0 {
		return 0, snap.Len(), false
	}
	return i, snap.Len(), true
}

func head(snap domain.Snapshot) (domain.Story, error) {
	story, ok := snap.At(0)
	if !ok {
		return domain.Story{}, fmt.Errorf("%w: catalog is empty", domain.ErrStoryNotFound)
	}
	return story, nil
}
