package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/playback"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Handle screen-specific keys
	switch m.Screen {
	case ScreenViewer:
		return m.handleViewerKey(msg)

	case ScreenNotFound:
		switch {
		case key.Matches(msg, Keys.Escape):
			m.notFoundID = ""
			m.Screen = ScreenHome
		case key.Matches(msg, Keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	return m.handleHomeKey(msg)
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Filter input has the keyboard while typing
	if m.Feed.IsFilterTyping() {
		m.Feed, cmd = m.Feed.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Filter):
		return m, m.Feed.ToggleFilter()

	case key.Matches(msg, Keys.Escape):
		if m.Feed.IsFiltering() {
			m.Feed.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, LoadCatalogCmd(m.Catalog, m.opts.FeedLimit, true)

	case key.Matches(msg, Keys.Enter):
		if story, ok := m.Feed.Selected(); ok {
			return m, m.enterViewer(story)
		}
		return m, nil
	}

	m.Feed, cmd = m.Feed.Update(msg)
	return m, cmd
}

func (m Model) handleViewerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.leaveViewer()
		return m, nil

	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Previous):
		return m, m.navigate(playback.IntentPrevious)

	case key.Matches(msg, Keys.Next):
		return m, m.navigate(playback.IntentNext)

	case key.Matches(msg, Keys.Retry):
		// "Try Next Story" is only offered from the error panel
		if m.Player.State().HasError() {
			return m, m.navigate(playback.IntentRetry)
		}
		return m, nil

	case key.Matches(msg, Keys.Open):
		if m.story.ImageURL != "" {
			return m, OpenImageCmd(m.Opener, m.story.ImageURL)
		}
	}

	return m, nil
}

// handleMouseMsg maps pointer input onto the viewer's tap zones
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// No layout yet, so no zones to hit
	if m.Screen != ScreenViewer || m.Width == 0 {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		m.Player.SetControlsVisible(true)
		return m, nil

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.Player.SetControlsVisible(true)

		// Close control sits in the top-left corner
		if msg.Y == 0 && msg.X < 3 {
			m.leaveViewer()
			return m, nil
		}

		zone := m.Width / 4
		switch {
		case msg.X < zone:
			return m, m.navigate(playback.IntentPrevious)
		case msg.X >= m.Width-zone:
			return m, m.navigate(playback.IntentNext)
		case m.Player.State().HasError():
			// "Try Next Story" fills the middle of the error panel
			return m, m.navigate(playback.IntentRetry)
		}
	}

	return m, nil
}
