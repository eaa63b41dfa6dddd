package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.NewSnapshot([]domain.Story{
		{ID: "0", Title: "Photo by A", Author: "A", Width: 10, Height: 20},
		{ID: "1", Title: "Photo by B", Author: "B"},
	})
}

func TestCatalogStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fetchedAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	s, err := NewCatalogStore(dir, "https://picsum.photos")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot(), fetchedAt))
	require.NoError(t, s.Close())

	reopened, err := NewCatalogStore(dir, "https://picsum.photos/")
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	snap, at, ok := reopened.LoadSnapshot()
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1"}, snap.IDs())
	assert.True(t, fetchedAt.Equal(at))

	story, ok := snap.Find("0")
	require.True(t, ok)
	assert.Equal(t, 10, story.Width)
}

func TestCatalogStoreSeparatesUpstreams(t *testing.T) {
	dir := t.TempDir()

	a, err := NewCatalogStore(dir, "https://a.example")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, a.SaveSnapshot(sampleSnapshot(), time.Now()))

	b, err := NewCatalogStore(dir, "https://b.example")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, _, ok := b.LoadSnapshot()
	assert.False(t, ok)
}

func TestCatalogStoreMemoryOnly(t *testing.T) {
	s, err := NewCatalogStore("", "")
	require.NoError(t, err)

	_, _, ok := s.LoadSnapshot()
	assert.False(t, ok)

	require.NoError(t, s.SaveSnapshot(sampleSnapshot(), time.Now()))
	snap, _, ok := s.LoadSnapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Len())

	require.NoError(t, s.Clear())
	_, _, ok = s.LoadSnapshot()
	assert.False(t, ok)
	assert.NoError(t, s.Close())
}

func TestCatalogStoreClearRemovesPersistedData(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCatalogStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(sampleSnapshot(), time.Now()))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Close())

	reopened, err := NewCatalogStore(dir, "")
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	_, _, ok := reopened.LoadSnapshot()
	assert.False(t, ok)

	// The mirror is still writable after a clear
	require.NoError(t, reopened.SaveSnapshot(sampleSnapshot(), time.Now()))
	_, _, ok = reopened.LoadSnapshot()
	assert.True(t, ok)
}
