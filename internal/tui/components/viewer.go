package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/playback"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// ViewerProps is everything the viewer needs to draw one frame
type ViewerProps struct {
	Story     domain.Story
	State     playback.State
	Index     int // Zero-based position in the catalog
	Total     int
	Countdown float64 // Fraction of the auto-advance interval elapsed
}

// Viewer renders the full-screen story viewer
type Viewer struct {
	spinner spinner.Model
	bar     progress.Model

	width  int
	height int
}

// NewViewer creates a new viewer component
func NewViewer() Viewer {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	bar := progress.New(
		progress.WithSolidFill(string(styles.Accent)),
		progress.WithoutPercentage(),
	)

	return Viewer{spinner: s, bar: bar}
}

// SetSize updates the component dimensions
func (v *Viewer) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.bar.Width = max(width-8, 10)
}

// Init starts the loading spinner
func (v Viewer) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update forwards spinner ticks
func (v Viewer) Update(msg tea.Msg) (Viewer, tea.Cmd) {
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return v, cmd
}

// View renders the viewer for props
func (v Viewer) View(p ViewerProps) string {
	width := max(v.width, 40)
	inner := width - 8

	var b strings.Builder

	// Top bar: close control and counter
	closeCtl := "  "
	if p.State.ControlsVisible {
		closeCtl = styles.ControlStyle.Render("✕")
	}
	counter := ""
	if p.Total > 0 {
		counter = styles.CounterStyle.Render(fmt.Sprintf("%d / %d", p.Index+1, p.Total))
	}
	gap := max(width-lipgloss.Width(closeCtl)-lipgloss.Width(counter)-4, 1)
	b.WriteString(closeCtl + strings.Repeat(" ", gap) + counter)
	b.WriteString("\n\n")

	// Story heading
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(p.Story.Title, inner)))
	b.WriteString("\n")
	if p.Story.AltText != "" {
		b.WriteString(styles.SubtitleStyle.Render(styles.Truncate(p.Story.AltText, inner)))
	}
	b.WriteString("\n\n")

	// Frame content depends on phase
	var body string
	switch p.State.Phase {
	case playback.Loading:
		body = v.spinner.View() + " " + styles.DimStyle.Render("Loading story...")
	case playback.Error:
		body = renderImageError()
	default:
		body = renderImageInfo(p.Story, inner-4)
	}

	frame := styles.ViewerFrameStyle.Width(inner).Render(body)
	if p.State.ControlsVisible {
		prev := styles.ControlStyle.Render("‹")
		next := styles.ControlStyle.Render("›")
		frame = lipgloss.JoinHorizontal(lipgloss.Center, prev+" ", frame, " "+next)
	}
	b.WriteString(frame)
	b.WriteString("\n\n")

	// Auto-advance countdown
	b.WriteString(v.bar.ViewAs(clamp(p.Countdown)))
	b.WriteString("\n\n")

	help := [][2]string{{"←/h", "previous"}, {"→/l", "next"}, {"o", "open image"}, {"esc", "close"}}
	if p.State.HasError() {
		help = append([][2]string{{"n/enter", "try next"}}, help...)
	}
	b.WriteString(styles.RenderHelp(help...))

	return b.String()
}

func renderImageError() string {
	lines := []string{
		styles.ErrorTitleStyle.Render("Oops! Image Error"),
		styles.SubtitleStyle.Render("The story image could not be loaded."),
		"",
		styles.ButtonStyle.Render("Try Next Story"),
	}
	return styles.ErrorPanelStyle.Render(strings.Join(lines, "\n"))
}

func renderImageInfo(story domain.Story, width int) string {
	var lines []string
	if story.Author != "" {
		lines = append(lines, styles.AccentStyle.Render("by "+story.Author))
	}
	if dims := story.Dimensions(); dims != "" {
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("%s %s", dims, story.Orientation())))
	}
	lines = append(lines, styles.SubtitleStyle.Render(styles.Truncate(story.ImageURL, width)))
	if story.SourceURL != "" {
		lines = append(lines, styles.DimStyle.Render(styles.Truncate(story.SourceURL, width)))
	}
	return strings.Join(lines, "\n")
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// NotFoundView renders the page shown for an unknown story id
func NotFoundView(id string, width int) string {
	lines := []string{
		styles.ErrorTitleStyle.Render("Story Not Found"),
		"",
		styles.SubtitleStyle.Render(fmt.Sprintf("The story %q is not in the current catalog.", id)),
		"",
		styles.RenderHelp([2]string{"esc", "back to stories"}, [2]string{"q", "quit"}),
	}
	return lipgloss.NewStyle().Width(max(width, 40)).Padding(1, 2).Render(strings.Join(lines, "\n"))
}
