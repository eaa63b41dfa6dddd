package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Layout constants for feed cards
const (
	// Border adds 1 char on each side
	CardBorderWidth = 2

	// Gap between cards
	CardGap = 1

	// Scroll indicators ("‹" and "›") each take 2 columns
	ScrollIndicatorWidth = 4

	DefaultCardWidth = 28
	MinCardWidth     = 12
)

// Feed is the horizontally scrolling row of story preview cards on the home screen
type Feed struct {
	stories []domain.Story
	index   *search.Index

	// Selection
	cursor int
	offset int

	// Dimensions
	width     int
	height    int
	cardWidth int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	results      []search.FilterResult // nil when no query
}

// NewFeed creates an empty feed
func NewFeed(cardWidth int) Feed {
	if cardWidth < MinCardWidth {
		cardWidth = DefaultCardWidth
	}

	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return Feed{
		cardWidth:   cardWidth,
		index:       search.NewIndex(nil),
		filterInput: ti,
	}
}

// SetStories replaces the feed content, keeping the selected story when it is still present
func (f *Feed) SetStories(stories []domain.Story) {
	selectedID := ""
	if s, ok := f.Selected(); ok {
		selectedID = s.ID
	}

	f.stories = stories
	f.index = search.NewIndex(stories)
	f.cursor = 0
	f.offset = 0
	if f.filterQuery != "" {
		f.applyFilter()
	}

	if selectedID != "" {
		for i := 0; i < f.itemCount(); i++ {
			if f.storyAt(i).ID == selectedID {
				f.SetCursor(i)
				break
			}
		}
	}
}

// Stories returns the unfiltered feed
func (f Feed) Stories() []domain.Story {
	return f.stories
}

// SetSize updates the component dimensions
func (f *Feed) SetSize(width, height int) {
	f.width = width
	f.height = height
	f.ensureVisible()
}

// Cursor returns the current cursor position
func (f Feed) Cursor() int {
	return f.cursor
}

// SetCursor sets the cursor position
func (f *Feed) SetCursor(pos int) {
	max := f.itemCount() - 1
	if max < 0 {
		f.cursor = 0
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > max {
		pos = max
	}
	f.cursor = pos
	f.ensureVisible()
}

// Selected returns the story under the cursor
func (f Feed) Selected() (domain.Story, bool) {
	if f.cursor >= f.itemCount() {
		return domain.Story{}, false
	}
	return f.storyAt(f.cursor), true
}

// IsEmpty returns true if there are no stories at all
func (f Feed) IsEmpty() bool {
	return len(f.stories) == 0
}

// visibleCards returns how many cards fit across the current width
func (f Feed) visibleCards() int {
	slot := f.cardWidth + CardBorderWidth + CardGap
	n := (f.width - ScrollIndicatorWidth) / slot
	if n < 1 {
		n = 1
	}
	return n
}

// ensureVisible ensures the cursor is visible
func (f *Feed) ensureVisible() {
	visible := f.visibleCards()
	if f.cursor < f.offset {
		f.offset = f.cursor
	}
	if f.cursor >= f.offset+visible {
		f.offset = f.cursor - visible + 1
	}
	if f.offset < 0 {
		f.offset = 0
	}
}

// ToggleFilter activates the filter input
func (f *Feed) ToggleFilter() tea.Cmd {
	f.filterActive = true
	return f.filterInput.Focus()
}

// IsFiltering returns true if filter mode is active
func (f Feed) IsFiltering() bool {
	return f.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (f Feed) IsFilterTyping() bool {
	return f.filterActive && f.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all stories
func (f *Feed) ClearFilter() {
	f.filterActive = false
	f.filterQuery = ""
	f.results = nil
	f.filterInput.SetValue("")
	f.filterInput.Blur()
	f.cursor = 0
	f.offset = 0
}

// applyFilter filters stories based on the current query
func (f *Feed) applyFilter() {
	f.filterQuery = f.filterInput.Value()
	if strings.TrimSpace(f.filterQuery) == "" {
		f.results = nil
	} else {
		f.results = f.index.Filter(f.filterQuery)
		if f.results == nil {
			f.results = []search.FilterResult{}
		}
	}

	// Reset cursor to first match
	f.cursor = 0
	f.offset = 0
}

func (f Feed) itemCount() int {
	if f.results != nil {
		return len(f.results)
	}
	return len(f.stories)
}

func (f Feed) storyAt(i int) domain.Story {
	if f.results != nil {
		return f.results[i].Story
	}
	return f.stories[i]
}

func (f Feed) matchesAt(i int) []int {
	if f.results != nil {
		return f.results[i].MatchedIndexes
	}
	return nil
}

// Update handles messages
func (f Feed) Update(msg tea.Msg) (Feed, tea.Cmd) {
	// Filter input has the keyboard while typing
	if f.IsFilterTyping() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				f.ClearFilter()
				return f, nil
			case "enter":
				// Accept filter, blur input to allow navigation
				f.filterInput.Blur()
				return f, nil
			case "backspace":
				if f.filterInput.Value() == "" {
					f.ClearFilter()
					return f, nil
				}
			}
		}

		var cmd tea.Cmd
		f.filterInput, cmd = f.filterInput.Update(msg)
		if f.filterInput.Value() != f.filterQuery {
			f.applyFilter()
		}
		return f, cmd
	}

	count := f.itemCount()
	if count == 0 {
		return f, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "l", "right", "j", "down":
			if f.cursor < count-1 {
				f.cursor++
				f.ensureVisible()
			}
		case "h", "left", "k", "up":
			if f.cursor > 0 {
				f.cursor--
				f.ensureVisible()
			}
		case "g", "home":
			f.cursor = 0
			f.offset = 0
		case "G", "end":
			f.cursor = count - 1
			f.ensureVisible()
		}
	}

	return f, nil
}

// View renders the feed
func (f Feed) View() string {
	var b strings.Builder

	count := f.itemCount()
	switch {
	case f.IsEmpty():
		b.WriteString(styles.DimStyle.Render("No stories available at the moment."))
	case count == 0:
		b.WriteString(styles.DimStyle.Render("No matches"))
	default:
		end := f.offset + f.visibleCards()
		if end > count {
			end = count
		}

		cards := make([]string, 0, end-f.offset+2)

		// ALWAYS reserve space for scroll indicators to prevent layout shifts
		left := "  "
		if f.offset > 0 {
			left = styles.DimStyle.Render("‹ ")
		}
		cards = append(cards, left)

		for i := f.offset; i < end; i++ {
			cards = append(cards, f.renderCard(f.storyAt(i), f.matchesAt(i), i == f.cursor))
			if i < end-1 {
				cards = append(cards, strings.Repeat(" ", CardGap))
			}
		}

		right := "  "
		if end < count {
			right = styles.DimStyle.Render(" ›")
		}
		cards = append(cards, right)

		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, cards...))
	}

	if f.filterActive {
		b.WriteString("\n\n")
		b.WriteString(f.renderFilterBar())
	}

	return b.String()
}

// renderCard renders one preview card
func (f Feed) renderCard(story domain.Story, matches []int, selected bool) string {
	inner := f.cardWidth - 2 // Padding(0,1)

	title := styles.Truncate(story.Title, inner)
	var titleLine string
	if len(matches) > 0 && title == story.Title {
		titleLine = styles.Highlight(title, matches)
	} else {
		titleLine = styles.TitleStyle.Render(title)
	}

	lines := []string{titleLine}
	if story.Author != "" {
		lines = append(lines, styles.SubtitleStyle.Render(styles.Truncate(story.Author, inner)))
	} else {
		lines = append(lines, " ")
	}

	meta := story.Dimensions()
	if o := story.Orientation(); o != "" {
		meta = fmt.Sprintf("%s %s", meta, o)
	}
	if meta == "" {
		meta = " "
	}
	lines = append(lines, styles.DimStyle.Render(styles.Truncate(meta, inner)))
	lines = append(lines, styles.DimStyle.Render(styles.Truncate("#"+story.ID, inner)))

	style := styles.CardStyle
	if selected {
		style = styles.CardSelectedStyle
	}
	return style.Width(f.cardWidth).Render(strings.Join(lines, "\n"))
}

// renderFilterBar renders the filter input bar
func (f Feed) renderFilterBar() string {
	input := f.filterInput.View()

	// Show match count
	countStr := ""
	if f.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", f.itemCount(), len(f.stories)))
	}

	return input + countStr
}
