package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/playback"
	"github.com/mmcdole/reel/internal/tui/components"
)

// Screen is the top-level screen being shown
type Screen int

const (
	ScreenHome Screen = iota
	ScreenViewer
	ScreenNotFound
)

const (
	DefaultFeedLimit = 15
	frameInterval    = 100 * time.Millisecond

	// Vertical layout: status line
	ChromeHeight = 1
)

// imageOpener launches an external image viewer (consumer-defined interface)
type imageOpener interface {
	Open(url string) error
}

// Options configures the program
type Options struct {
	FeedLimit    int
	PinSnapshot  bool   // Navigate a snapshot fixed at viewer open instead of the shared cache
	StartStoryID string // Open the viewer on this story once the catalog loads
	CardWidth    int
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	Screen Screen
	Ready  bool

	// Services
	Catalog *catalog.Provider
	Prober  domain.ImageProber
	Opener  imageOpener
	Player  *playback.Controller

	// UI Components
	Feed   components.Feed
	Viewer components.Viewer

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	Loading     bool
	statusSeq   int // Bumped per status; only the latest clear applies

	// Viewer session
	pinned     *catalog.Pinned // Set while a pinned session is mounted
	story      domain.Story
	armedAt    time.Time // When the current auto-advance timer was armed
	notFoundID string

	launchPending bool
	opts          Options
	logger        *slog.Logger
	now           func() time.Time
}

// NewModel creates a new application model
func NewModel(
	provider *catalog.Provider,
	prober domain.ImageProber,
	opener imageOpener,
	player *playback.Controller,
	opts Options,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	return Model{
		Screen:        ScreenHome,
		Catalog:       provider,
		Prober:        prober,
		Opener:        opener,
		Player:        player,
		Feed:          components.NewFeed(opts.CardWidth),
		Viewer:        components.NewViewer(),
		Loading:       true,
		launchPending: opts.StartStoryID != "",
		opts:          opts,
		logger:        logger,
		now:           time.Now,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadCatalogCmd(m.Catalog, m.opts.FeedLimit, false),
		m.Viewer.Init(),
		TickCmd(frameInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.BlurMsg:
		m.Player.SetControlsVisible(false)
		return m, nil

	case TickMsg:
		// Redraw drives the countdown bar
		return m, TickCmd(frameInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Viewer, cmd = m.Viewer.Update(msg)
		return m, cmd

	case CatalogLoadedMsg:
		return m.handleCatalogLoaded(msg)

	case StoryResolvedMsg:
		return m, m.handleResolution(msg)

	case AdvanceTickMsg:
		req, ok := m.Player.TimerFired(msg.Token)
		if !ok {
			return m, nil
		}
		return m, ResolveCmd(m.Player.Navigator(), req)

	case ImageProbedMsg:
		if msg.Err != nil {
			if m.Player.ResourceFailed(msg.Token) {
				m.logger.Debug("image probe failed", "story", m.story.ID, "error", msg.Err)
			}
		} else {
			m.Player.ResourceReady(msg.Token)
		}
		return m, nil

	case ImageOpenedMsg:
		return m, m.setStatus("Opened image in external viewer", false, 3*time.Second)

	case ErrMsg:
		m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true, 5*time.Second)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError, 3*time.Second)

	case ClearStatusMsg:
		if msg.Seq != m.statusSeq {
			return m, nil
		}
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleCatalogLoaded(msg CatalogLoadedMsg) (tea.Model, tea.Cmd) {
	m.Loading = false
	m.Feed.SetStories(msg.Snapshot.Stories())

	var cmd tea.Cmd
	if msg.Forced {
		cmd = m.setStatus(fmt.Sprintf("Loaded %d stories", msg.Snapshot.Len()), false, 3*time.Second)
	}

	if m.launchPending {
		m.launchPending = false
		story, ok := msg.Snapshot.Find(m.opts.StartStoryID)
		if !ok {
			m.showNotFound(m.opts.StartStoryID)
			return m, cmd
		}
		return m, tea.Batch(cmd, m.enterViewer(story))
	}

	return m, cmd
}

// setStatus shows text in the status bar and schedules its removal
func (m *Model) setStatus(text string, isErr bool, d time.Duration) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(d, m.statusSeq)
}

// lookup is the catalog view the current session navigates
func (m Model) lookup() catalog.Lookup {
	if m.pinned != nil {
		return m.pinned
	}
	return m.Catalog
}

// navSnapshot is the ordering the viewer navigates: the pinned snapshot
// when one is set, otherwise whatever the shared cache currently holds.
func (m Model) navSnapshot() domain.Snapshot {
	if m.pinned != nil {
		return m.pinned.Snapshot()
	}
	return m.Catalog.Current()
}

// enterViewer mounts a playback session on story
func (m *Model) enterViewer(story domain.Story) tea.Cmd {
	if m.opts.PinSnapshot {
		m.pinned = m.Catalog.Pin()
		m.Player.SetNavigator(m.pinned)
	} else {
		m.pinned = nil
		m.Player.SetNavigator(m.Catalog)
	}

	st := m.Player.Mount(story.ID)
	m.Screen = ScreenViewer
	return m.showStory(story, st.Token)
}

// showStory swaps in story and starts the work keyed on token:
// the auto-advance timer and the image probe.
func (m *Model) showStory(story domain.Story, token uint64) tea.Cmd {
	m.story = story
	m.armedAt = m.now()
	return tea.Batch(
		AdvanceTickCmd(m.Player.Interval(), token),
		ProbeImageCmd(m.Prober, story.ImageURL, token),
	)
}

// leaveViewer handles the dismiss intent
func (m *Model) leaveViewer() {
	if eff := m.Player.Dismiss(); eff.Kind == playback.EffectHome {
		m.Player.Unmount()
		m.pinned = nil
		m.Screen = ScreenHome
	}
}

func (m *Model) showNotFound(id string) {
	m.Player.Unmount()
	m.pinned = nil
	m.notFoundID = id
	m.Screen = ScreenNotFound
}

// navigate begins intent and resolves it off the update loop
func (m Model) navigate(intent playback.Intent) tea.Cmd {
	req, ok := m.Player.Begin(intent)
	if !ok {
		return nil
	}
	return ResolveCmd(m.Player.Navigator(), req)
}

// handleResolution applies a neighbor lookup to the viewer
func (m *Model) handleResolution(msg StoryResolvedMsg) tea.Cmd {
	res := msg.Resolution
	if eff, ok := m.Player.Apply(res); ok {
		if msg.Fallback {
			m.logger.Info("story left the catalog, returning to head", "from", res.From, "head", res.Target)
		}
		return m.applyEffect(eff)
	}
	if !m.Player.IsCurrent(res.Request) {
		return nil
	}

	// The current story has left the catalog: land on the head
	if !msg.Fallback && errors.Is(res.Err, domain.ErrStoryNotFound) && m.navSnapshot().IndexOf(res.From) < 0 {
		return HeadCmd(m.lookup(), res.Request)
	}

	// Nothing to navigate to; the timer keeps repeating on the same token
	if res.Intent == playback.IntentTimer {
		m.armedAt = m.now()
		return AdvanceTickCmd(m.Player.Interval(), res.Token)
	}
	return nil
}

func (m *Model) applyEffect(eff playback.Effect) tea.Cmd {
	switch eff.Kind {
	case playback.EffectHome:
		m.leaveViewer()
		return nil
	case playback.EffectShow:
		story, ok := m.navSnapshot().Find(eff.StoryID)
		if !ok {
			m.showNotFound(eff.StoryID)
			return nil
		}
		return m.showStory(story, eff.Token)
	}
	return nil
}

// countdown returns the elapsed fraction of the auto-advance interval
func (m Model) countdown() float64 {
	if m.armedAt.IsZero() {
		return 0
	}
	return float64(m.now().Sub(m.armedAt)) / float64(m.Player.Interval())
}
