package tui

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/playback"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CatalogLoadedMsg signals that a catalog snapshot is available
type CatalogLoadedMsg struct {
	Snapshot domain.Snapshot
	Forced   bool // Result of an explicit refresh
}

// StoryResolvedMsg carries a neighbor lookup back to the update loop
type StoryResolvedMsg struct {
	Resolution playback.Resolution
	Fallback   bool // Target is the catalog head, not a neighbor
}

// AdvanceTickMsg fires when the auto-advance timer armed for Token elapses
type AdvanceTickMsg struct {
	Token uint64
}

// ImageProbedMsg is the rendering layer's ready/failed signal for Token
type ImageProbedMsg struct {
	Token uint64
	Err   error
}

// ImageOpenedMsg signals the external viewer was launched
type ImageOpenedMsg struct {
	URL string
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message set with the same Seq
type ClearStatusMsg struct {
	Seq int
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
