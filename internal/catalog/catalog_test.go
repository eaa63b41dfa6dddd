package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSource struct {
	mu      sync.Mutex
	stories []domain.Story
	err     error
	calls   int32
	limits  []int
	gate    chan struct{}
}

func (s *fakeSource) ListStories(ctx context.Context, limit int) ([]domain.Story, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && limit < len(s.stories) {
		return append([]domain.Story(nil), s.stories[:limit]...), nil
	}
	return append([]domain.Story(nil), s.stories...), nil
}

func (s *fakeSource) set(stories []domain.Story, err error) {
	s.mu.Lock()
	s.stories = stories
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSource) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func stories(ids ...string) []domain.Story {
	out := make([]domain.Story, len(ids))
	for i, id := range ids {
		out[i] = domain.Story{ID: id, Title: "Photo by " + id}
	}
	return out
}

func newTestProvider(src *fakeSource, clock *fakeClock, retry time.Duration) (*Provider, *Cache) {
	cache := NewCache(src, nil, Options{TTL: 5 * time.Minute, RetryInterval: retry, Clock: clock}, nil)
	return NewProvider(cache, 10, nil), cache
}

func TestFetchCatalogCachesWithinTTL(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b", "c")}
	clock := newFakeClock()
	p, _ := newTestProvider(src, clock, 0)
	ctx := context.Background()

	snap := p.FetchCatalog(ctx, 10)
	assert.Equal(t, []string{"a", "b", "c"}, snap.IDs())

	clock.Advance(4 * time.Minute)
	src.set(stories("x"), nil)
	snap = p.FetchCatalog(ctx, 10)
	assert.Equal(t, []string{"a", "b", "c"}, snap.IDs(), "fresh cache is served")
	assert.Equal(t, 1, src.callCount())

	clock.Advance(time.Minute)
	snap = p.FetchCatalog(ctx, 10)
	assert.Equal(t, []string{"x"}, snap.IDs(), "expired cache is refetched")
	assert.Equal(t, 2, src.callCount())
}

func TestFetchCatalogIgnoresLimitOnFreshHit(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b", "c", "d", "e")}
	p, _ := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	assert.Equal(t, 2, p.FetchCatalog(ctx, 2).Len())
	assert.Equal(t, 2, p.FetchCatalog(ctx, 5).Len(), "fresh hit returns the cached listing whatever the limit")
	assert.Equal(t, []int{2}, src.limits)
}

func TestFetchCatalogRetainsStaleOnFailure(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b")}
	clock := newFakeClock()
	p, _ := newTestProvider(src, clock, 0)
	ctx := context.Background()

	p.FetchCatalog(ctx, 10)
	clock.Advance(10 * time.Minute)

	for _, err := range []error{domain.ErrUpstream, domain.ErrMalformedResponse} {
		src.set(nil, err)
		snap := p.FetchCatalog(ctx, 10)
		assert.Equal(t, []string{"a", "b"}, snap.IDs())
	}
}

func TestFetchCatalogEmptyWithoutPriorCache(t *testing.T) {
	src := &fakeSource{err: domain.ErrUpstream}
	p, _ := newTestProvider(src, newFakeClock(), 0)

	snap := p.FetchCatalog(context.Background(), 10)
	assert.True(t, snap.IsEmpty())
}

func TestRefreshThrottledAfterFailure(t *testing.T) {
	src := &fakeSource{err: domain.ErrUpstream}
	clock := newFakeClock()
	p, _ := newTestProvider(src, clock, 10*time.Second)
	ctx := context.Background()

	p.FetchCatalog(ctx, 10)
	p.FetchCatalog(ctx, 10)
	p.FetchCatalog(ctx, 10)
	assert.Equal(t, 1, src.callCount(), "attempts inside the retry interval are skipped")

	clock.Advance(11 * time.Second)
	src.set(stories("a"), nil)
	snap := p.FetchCatalog(ctx, 10)
	assert.Equal(t, []string{"a"}, snap.IDs())
	assert.Equal(t, 2, src.callCount())

	// Healthy again: a forced refresh goes straight through
	p.Refresh(ctx, 10)
	assert.Equal(t, 3, src.callCount())
}

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b"), gate: make(chan struct{})}
	_, cache := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]domain.Snapshot, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.RefreshIfStale(ctx, 10)
		}(i)
	}

	require.Eventually(t, func() bool { return src.callCount() >= 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight request
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, 1, src.callCount())
	for _, snap := range results {
		assert.Equal(t, []string{"a", "b"}, snap.IDs())
	}
}

func TestFindByID(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b")}
	p, _ := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	story, err := p.FindByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Photo by b", story.Title)

	_, err = p.FindByID(ctx, "zzz")
	assert.True(t, errors.Is(err, domain.ErrStoryNotFound))
}

func TestNeighborWrapsAndRejectsUnknown(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b", "c")}
	p, _ := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	tests := []struct {
		id   string
		dir  domain.Direction
		want string
	}{
		{"a", domain.Forward, "b"},
		{"c", domain.Forward, "a"},
		{"a", domain.Backward, "c"},
		{"b", domain.Backward, "a"},
	}
	for _, tt := range tests {
		got, err := p.Neighbor(ctx, tt.id, tt.dir)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.id, tt.dir)
	}

	_, err := p.Neighbor(ctx, "missing", domain.Forward)
	assert.True(t, errors.Is(err, domain.ErrStoryNotFound))
}

func TestNeighborOnEmptyCatalog(t *testing.T) {
	src := &fakeSource{err: domain.ErrUpstream}
	p, _ := newTestProvider(src, newFakeClock(), 0)

	_, err := p.Neighbor(context.Background(), "a", domain.Forward)
	assert.True(t, errors.Is(err, domain.ErrStoryNotFound))

	_, err = p.Head(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoryNotFound))
}

func TestPositionAndHead(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b", "c")}
	p, _ := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	i, n, ok := p.Position(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, 3, n)

	_, n, ok = p.Position(ctx, "zzz")
	assert.False(t, ok)
	assert.Equal(t, 3, n)

	h, err := p.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", h.ID)
}

func TestSharedVersusPinnedAcrossRefresh(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b", "c")}
	p, _ := newTestProvider(src, newFakeClock(), 0)
	ctx := context.Background()

	p.FetchCatalog(ctx, 10)
	pinned := p.Pin()

	// Upstream reorders and the shared cache is refreshed mid-session
	src.set(stories("b", "a", "c", "d"), nil)
	p.Refresh(ctx, 10)

	shared, err := p.Neighbor(ctx, "a", domain.Forward)
	require.NoError(t, err)
	assert.Equal(t, "c", shared, "shared cache follows the new ordering")

	next, err := pinned.Neighbor(ctx, "a", domain.Forward)
	require.NoError(t, err)
	assert.Equal(t, "b", next, "pinned session keeps its original ordering")

	prev, err := pinned.Neighbor(ctx, "a", domain.Backward)
	require.NoError(t, err)
	assert.Equal(t, "c", prev)

	_, err = pinned.FindByID(ctx, "d")
	assert.True(t, errors.Is(err, domain.ErrStoryNotFound))
	_, err = p.FindByID(ctx, "d")
	assert.NoError(t, err)

	_, n, _ := pinned.Position(ctx, "a")
	assert.Equal(t, 3, n)
	_, n, _ = p.Position(ctx, "a")
	assert.Equal(t, 4, n)
}

func TestCacheSeedsFromStore(t *testing.T) {
	clock := newFakeClock()
	mirror, err := store.NewCatalogStore("", "")
	require.NoError(t, err)
	require.NoError(t, mirror.SaveSnapshot(domain.NewSnapshot(stories("m1", "m2")), clock.Now().Add(-time.Minute)))

	src := &fakeSource{stories: stories("a")}
	cache := NewCache(src, mirror, Options{TTL: 5 * time.Minute, Clock: clock}, nil)

	assert.Equal(t, []string{"m1", "m2"}, cache.RefreshIfStale(context.Background(), 10).IDs())
	assert.Equal(t, 0, src.callCount(), "young mirror skips the network")

	clock.Advance(5 * time.Minute)
	assert.Equal(t, []string{"a"}, cache.RefreshIfStale(context.Background(), 10).IDs())

	snap, _, ok := mirror.LoadSnapshot()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, snap.IDs(), "successful fetch is mirrored")
}

func TestStaleSnapshotKeptAsFallbackUntilCleared(t *testing.T) {
	src := &fakeSource{stories: stories("a")}
	clock := newFakeClock()
	_, cache := newTestProvider(src, clock, 0)
	ctx := context.Background()

	cache.RefreshIfStale(ctx, 10)
	fetched, ok := cache.FetchedAt()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), fetched)

	clock.Advance(10 * time.Minute)
	src.set(nil, domain.ErrUpstream)

	assert.Equal(t, []string{"a"}, cache.RefreshIfStale(ctx, 10).IDs())
	assert.Equal(t, 2, src.callCount())

	require.NoError(t, cache.Clear())
	assert.True(t, cache.Current().IsEmpty())
	_, ok = cache.FetchedAt()
	assert.False(t, ok)
}

func TestPinDoesNotFetch(t *testing.T) {
	src := &fakeSource{stories: stories("a", "b")}
	p, _ := newTestProvider(src, newFakeClock(), 0)

	assert.True(t, p.Pin().Snapshot().IsEmpty())
	assert.Equal(t, 0, src.callCount())
}

func TestClearRemovesMirror(t *testing.T) {
	mirror, err := store.NewCatalogStore(t.TempDir(), "https://picsum.photos")
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })

	src := &fakeSource{stories: stories("a")}
	cache := NewCache(src, mirror, Options{Clock: newFakeClock()}, nil)
	cache.Refresh(context.Background(), 10)
	_, _, ok := mirror.LoadSnapshot()
	require.True(t, ok)

	require.NoError(t, cache.Clear())
	_, _, ok = mirror.LoadSnapshot()
	assert.False(t, ok)
}
