package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/tui/components"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var content string
	switch m.Screen {
	case ScreenViewer:
		content = m.Viewer.View(m.viewerProps())
	case ScreenNotFound:
		content = components.NotFoundView(m.notFoundID, m.Width)
	default:
		content = m.renderHome()
	}

	// Pin the status line to the bottom
	gap := m.Height - lipgloss.Height(content) - ChromeHeight
	if gap > 0 {
		content += strings.Repeat("\n", gap)
	}
	return content + "\n" + m.renderStatusBar()
}

func (m Model) viewerProps() components.ViewerProps {
	props := components.ViewerProps{
		Story:     m.story,
		State:     m.Player.State(),
		Countdown: m.countdown(),
	}
	snap := m.navSnapshot()
	if i := snap.IndexOf(m.story.ID); i >= 0 {
		props.Index = i
		props.Total = snap.Len()
	}
	return props
}

func (m Model) renderHome() string {
	var b strings.Builder

	b.WriteString(styles.HeaderStyle.Render("Story Explorer"))
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render(" Pick a story to start the reel. Stories advance every few seconds and loop at the end."))
	b.WriteString("\n\n")

	if m.Loading && m.Feed.IsEmpty() {
		b.WriteString(styles.DimStyle.Render(" Fetching stories..."))
	} else {
		b.WriteString(m.Feed.View())
	}
	b.WriteString("\n\n")

	b.WriteString(" " + styles.RenderHelp(
		[2]string{"←/→", "browse"},
		[2]string{"enter", "view story"},
		[2]string{"/", "filter"},
		[2]string{"r", "refresh"},
		[2]string{"q", "quit"},
	))

	return b.String()
}

func (m Model) renderStatusBar() string {
	if m.StatusMsg == "" {
		if m.Loading {
			return styles.StatusStyle.Render(" refreshing...")
		}
		return ""
	}
	style := styles.StatusStyle
	if m.StatusIsErr {
		style = styles.StatusErrorStyle
	}
	return style.Render(" " + styles.Truncate(m.StatusMsg, max(m.Width-2, 1)))
}
