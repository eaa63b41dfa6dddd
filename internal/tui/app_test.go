package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/playback"
)

type stubSource struct {
	mu      sync.Mutex
	stories []domain.Story
}

func (s *stubSource) ListStories(ctx context.Context, limit int) ([]domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Story(nil), s.stories...), nil
}

func (s *stubSource) set(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = storiesOf(ids...)
}

type stubProber struct{ err error }

func (p stubProber) Probe(ctx context.Context, url string) error { return p.err }

type stubOpener struct {
	opened []string
	err    error
}

func (o *stubOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

func storiesOf(ids ...string) []domain.Story {
	stories := make([]domain.Story, len(ids))
	for i, id := range ids {
		stories[i] = domain.Story{
			ID:       id,
			Title:    "Story " + id,
			ImageURL: "https://img.test/" + id + ".jpg",
			AltText:  "Image for story " + id,
		}
	}
	return stories
}

type harness struct {
	model  Model
	source *stubSource
	opener *stubOpener
}

func newHarness(t *testing.T, opts Options, ids ...string) *harness {
	t.Helper()
	logger := adapter.NullLogger()
	src := &stubSource{stories: storiesOf(ids...)}
	cache := catalog.NewCache(src, nil, catalog.Options{TTL: time.Hour}, logger)
	provider := catalog.NewProvider(cache, 10, logger)
	player := playback.NewController(provider, time.Second, logger)
	opener := &stubOpener{}

	m := NewModel(provider, stubProber{}, opener, player, opts, logger)
	h := &harness{model: m, source: src, opener: opener}
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	h.send(t, LoadCatalogCmd(provider, 15, false)())
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func (h *harness) key(t *testing.T, k string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return h.send(t, msg)
}

// resolve runs a navigation command and feeds its result back in
func (h *harness) resolve(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, StoryResolvedMsg{}, msg)
	return h.send(t, msg)
}

func (h *harness) state() playback.State {
	return h.model.Player.State()
}

func TestCatalogLoadFillsFeed(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")

	assert.False(t, h.model.Loading)
	assert.Len(t, h.model.Feed.Stories(), 3)
	assert.Equal(t, ScreenHome, h.model.Screen)
	assert.Contains(t, h.model.View(), "Story Explorer")
}

func TestEmptyCatalogShowsPlaceholder(t *testing.T) {
	h := newHarness(t, Options{})

	assert.True(t, h.model.Feed.IsEmpty())
	assert.Contains(t, h.model.View(), "No stories available at the moment.")

	// Enter has nothing to open
	h.key(t, "enter")
	assert.Equal(t, ScreenHome, h.model.Screen)
}

func TestEnterOpensSelectedStory(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")

	h.key(t, "right")
	h.key(t, "enter")

	assert.Equal(t, ScreenViewer, h.model.Screen)
	assert.Equal(t, "b", h.state().StoryID)
	assert.True(t, h.state().IsLoading())
	assert.Contains(t, h.model.View(), "2 / 3")
}

func TestNextAndPreviousWrap(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")

	h.resolve(t, h.key(t, "left"))
	assert.Equal(t, "c", h.state().StoryID)

	h.resolve(t, h.key(t, "l"))
	assert.Equal(t, "a", h.state().StoryID)
}

func TestAdvanceTickWalksForward(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")

	for _, want := range []string{"b", "c", "a"} {
		cmd := h.send(t, AdvanceTickMsg{Token: h.state().Token})
		h.resolve(t, cmd)
		assert.Equal(t, want, h.state().StoryID)
	}
}

func TestStaleTickIgnored(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")
	old := h.state().Token

	h.resolve(t, h.key(t, "right"))
	require.Equal(t, "b", h.state().StoryID)

	cmd := h.send(t, AdvanceTickMsg{Token: old})
	assert.Nil(t, cmd)
	assert.Equal(t, "b", h.state().StoryID)
}

func TestStaleResolutionDiscarded(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")

	// Two lookups begun from "a"; only the first may land
	first := h.key(t, "right")
	second := h.key(t, "right")
	h.resolve(t, first)
	require.Equal(t, "b", h.state().StoryID)

	h.resolve(t, second)
	assert.Equal(t, "b", h.state().StoryID)
}

func TestImageFailureAndRetry(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")
	token := h.state().Token

	h.send(t, ImageProbedMsg{Token: token, Err: errors.New("404")})
	assert.True(t, h.state().HasError())
	assert.Contains(t, h.model.View(), "Oops! Image Error")

	h.resolve(t, h.key(t, "n"))
	assert.Equal(t, "b", h.state().StoryID)
	assert.True(t, h.state().IsLoading())

	// The old story's probe arrives late
	h.send(t, ImageProbedMsg{Token: token, Err: errors.New("404")})
	assert.True(t, h.state().IsLoading())

	h.send(t, ImageProbedMsg{Token: h.state().Token})
	assert.Equal(t, playback.Displaying, h.state().Phase)
}

func TestRetryOnlyFromErrorPanel(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b")
	h.key(t, "enter")
	h.send(t, ImageProbedMsg{Token: h.state().Token})

	assert.Nil(t, h.key(t, "n"))
	assert.Equal(t, "a", h.state().StoryID)
}

func TestEscapeReturnsHome(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b")
	h.key(t, "enter")
	pending := h.key(t, "right")

	h.key(t, "esc")
	assert.Equal(t, ScreenHome, h.model.Screen)
	assert.False(t, h.model.Player.Mounted())

	// Result of a lookup begun before dismissal is dropped
	h.resolve(t, pending)
	assert.Equal(t, ScreenHome, h.model.Screen)
	assert.False(t, h.model.Player.Mounted())
}

func TestMouseZones(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")

	h.send(t, tea.MouseMsg{X: 60, Y: 10, Action: tea.MouseActionMotion})
	assert.True(t, h.state().ControlsVisible)

	h.send(t, tea.BlurMsg{})
	assert.False(t, h.state().ControlsVisible)

	cmd := h.send(t, tea.MouseMsg{X: 115, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	h.resolve(t, cmd)
	assert.Equal(t, "b", h.state().StoryID)

	cmd = h.send(t, tea.MouseMsg{X: 5, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	h.resolve(t, cmd)
	assert.Equal(t, "a", h.state().StoryID)

	// Middle of the frame does nothing outside the error panel
	assert.Nil(t, h.send(t, tea.MouseMsg{X: 60, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}))

	h.send(t, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, ScreenHome, h.model.Screen)
}

func TestStartStory(t *testing.T) {
	h := newHarness(t, Options{StartStoryID: "c"}, "a", "b", "c")

	assert.Equal(t, ScreenViewer, h.model.Screen)
	assert.Equal(t, "c", h.state().StoryID)
}

func TestStartStoryNotFound(t *testing.T) {
	h := newHarness(t, Options{StartStoryID: "zzz"}, "a", "b")

	assert.Equal(t, ScreenNotFound, h.model.Screen)
	assert.Contains(t, h.model.View(), "Story Not Found")

	h.key(t, "esc")
	assert.Equal(t, ScreenHome, h.model.Screen)
}

func TestSharedCatalogRemovesCurrentStory(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")

	h.source.set("x", "y")
	h.model.Catalog.Refresh(context.Background(), 15)

	head := h.resolve(t, h.key(t, "right"))
	assert.Equal(t, "a", h.state().StoryID)

	h.resolve(t, head)
	assert.Equal(t, "x", h.state().StoryID)
	assert.True(t, h.state().IsLoading())
}

func TestEmptyCatalogKeepsTimerRunning(t *testing.T) {
	h := newHarness(t, Options{}, "a")
	h.key(t, "enter")
	token := h.state().Token

	h.source.set()
	h.model.Catalog.Refresh(context.Background(), 15)

	// Neighbor misses, then the head lookup finds nothing either
	cmd := h.send(t, AdvanceTickMsg{Token: token})
	rearm := h.resolve(t, h.resolve(t, cmd))
	assert.NotNil(t, rearm)
	assert.Equal(t, "a", h.state().StoryID)
	assert.Equal(t, token, h.state().Token)
}

func TestPinnedSnapshotIgnoresRefresh(t *testing.T) {
	h := newHarness(t, Options{PinSnapshot: true}, "a", "b", "c")
	h.key(t, "enter")

	h.source.set("b", "a", "c")
	h.model.Catalog.Refresh(context.Background(), 15)

	h.resolve(t, h.key(t, "right"))
	assert.Equal(t, "b", h.state().StoryID)
	assert.Contains(t, h.model.View(), "2 / 3")
}

func TestOpenImage(t *testing.T) {
	h := newHarness(t, Options{}, "a")
	h.key(t, "enter")

	cmd := h.key(t, "o")
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ImageOpenedMsg{URL: "https://img.test/a.jpg"}, msg)
	assert.Equal(t, []string{"https://img.test/a.jpg"}, h.opener.opened)

	h.send(t, msg)
	assert.Equal(t, "Opened image in external viewer", h.model.StatusMsg)
}

func TestOpenImageFailureSetsStatus(t *testing.T) {
	h := newHarness(t, Options{}, "a")
	h.opener.err = errors.New("no viewer")
	h.key(t, "enter")

	h.send(t, h.key(t, "o")())
	assert.True(t, h.model.StatusIsErr)
	assert.Contains(t, h.model.StatusMsg, "no viewer")
}

func TestCountdown(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b")
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	h.model.now = func() time.Time { return start }
	h.key(t, "enter")

	h.model.now = func() time.Time { return start.Add(500 * time.Millisecond) }
	assert.InDelta(t, 0.5, h.model.countdown(), 0.001)
}

func TestRefreshKeyReloads(t *testing.T) {
	h := newHarness(t, Options{}, "a")
	h.source.set("a", "b")

	cmd := h.key(t, "r")
	require.NotNil(t, cmd)
	assert.True(t, h.model.Loading)

	h.send(t, cmd())
	assert.Len(t, h.model.Feed.Stories(), 2)
	assert.Equal(t, "Loaded 2 stories", h.model.StatusMsg)
}

func TestErrorPanelClickRetries(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")
	h.send(t, ImageProbedMsg{Token: h.state().Token, Err: errors.New("404")})
	require.True(t, h.state().HasError())

	cmd := h.send(t, tea.MouseMsg{X: 60, Y: 12, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	h.resolve(t, cmd)
	assert.Equal(t, "b", h.state().StoryID)
	assert.True(t, h.state().IsLoading())
}

func TestMouseIgnoredBeforeLayout(t *testing.T) {
	h := newHarness(t, Options{}, "a", "b", "c")
	h.key(t, "enter")
	h.model.Width = 0

	cmd := h.send(t, tea.MouseMsg{X: 0, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Nil(t, cmd)
	assert.Equal(t, "a", h.state().StoryID)
	assert.Equal(t, ScreenViewer, h.model.Screen)
}

func TestOlderStatusClearKeepsNewerStatus(t *testing.T) {
	h := newHarness(t, Options{}, "a")

	h.send(t, StatusMsg{Message: "first"})
	first := h.model.statusSeq
	h.send(t, StatusMsg{Message: "second"})

	h.send(t, ClearStatusMsg{Seq: first})
	assert.Equal(t, "second", h.model.StatusMsg)

	h.send(t, ClearStatusMsg{Seq: h.model.statusSeq})
	assert.Empty(t, h.model.StatusMsg)
}
