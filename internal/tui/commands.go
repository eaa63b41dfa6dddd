package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/playback"
)

// Command factories for async operations

// LoadCatalogCmd fetches the feed. force bypasses the cache TTL.
func LoadCatalogCmd(provider *catalog.Provider, limit int, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var snap domain.Snapshot
		if force {
			snap = provider.Refresh(ctx, limit)
		} else {
			snap = provider.FetchCatalog(ctx, limit)
		}
		return CatalogLoadedMsg{Snapshot: snap, Forced: force}
	}
}

// ResolveCmd looks up the target of a navigation request off the update loop
func ResolveCmd(nav domain.Navigator, req playback.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return StoryResolvedMsg{Resolution: playback.Resolve(ctx, nav, req)}
	}
}

// HeadCmd resolves req to the first story of lookup, for a session whose
// current story is no longer in the catalog
func HeadCmd(lookup catalog.Lookup, req playback.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res := playback.Resolution{Request: req}
		if head, err := lookup.Head(ctx); err != nil {
			res.Err = err
		} else {
			res.Target = head.ID
		}
		return StoryResolvedMsg{Resolution: res, Fallback: true}
	}
}

// AdvanceTickCmd arms the auto-advance timer for token.
// A later navigation arms a new timer; this one then arrives stale and is ignored.
func AdvanceTickCmd(interval time.Duration, token uint64) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return AdvanceTickMsg{Token: token}
	})
}

// ProbeImageCmd checks the story image and reports ready/failed once for token
func ProbeImageCmd(prober domain.ImageProber, url string, token uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		return ImageProbedMsg{Token: token, Err: prober.Probe(ctx, url)}
	}
}

// OpenImageCmd opens url in the external image viewer
func OpenImageCmd(opener imageOpener, url string) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			return ErrMsg{Err: err, Context: "opening image"}
		}
		return ImageOpenedMsg{URL: url}
	}
}

// TickCmd returns a command that sends a tick after the given duration
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status seq after a delay
func ClearStatusCmd(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
