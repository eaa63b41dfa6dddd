package domain

import (
	"context"
	"time"
)

// CatalogSource provides the upstream listing of stories
type CatalogSource interface {
	// ListStories fetches up to limit stories in upstream order
	ListStories(ctx context.Context, limit int) ([]Story, error)
}

// ImageProber checks that an image locator can be loaded
type ImageProber interface {
	Probe(ctx context.Context, url string) error
}

// Navigator resolves positional neighbors over a stable ordering.
// Both the shared catalog provider and a pinned per-session snapshot implement it.
type Navigator interface {
	Neighbor(ctx context.Context, id string, dir Direction) (string, error)
}

// Clock abstracts time for cache freshness checks
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
