package playback

import "github.com/mmcdole/reel/internal/domain"

// Phase is the viewer's display state for the current story
type Phase int

const (
	Loading Phase = iota
	Displaying
	Error
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Displaying:
		return "displaying"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Intent is a discrete request fed into the controller
type Intent int

const (
	IntentTimer Intent = iota
	IntentNext
	IntentPrevious
	IntentRetry // "Try Next Story" from the error panel
	IntentDismiss
	IntentShowControls
	IntentHideControls
)

func (i Intent) String() string {
	switch i {
	case IntentTimer:
		return "timer"
	case IntentNext:
		return "next"
	case IntentPrevious:
		return "previous"
	case IntentRetry:
		return "retry"
	case IntentDismiss:
		return "dismiss"
	case IntentShowControls:
		return "show-controls"
	case IntentHideControls:
		return "hide-controls"
	default:
		return "unknown"
	}
}

// Direction returns the neighbor direction a navigation intent resolves.
// ok is false for intents that do not navigate between stories.
func (i Intent) Direction() (dir domain.Direction, ok bool) {
	switch i {
	case IntentTimer, IntentNext, IntentRetry:
		return domain.Forward, true
	case IntentPrevious:
		return domain.Backward, true
	default:
		return domain.Forward, false
	}
}

// State is the transient per-viewer session state
type State struct {
	SessionID       string
	StoryID         string
	Phase           Phase
	ControlsVisible bool

	// Token changes exactly once per accepted navigation.
	// Timers, image probes and the renderer key their work on it.
	Token uint64
}

func (s State) IsLoading() bool { return s.Phase == Loading }
func (s State) HasError() bool  { return s.Phase == Error }

// Request captures the session context a navigation intent was issued from
type Request struct {
	SessionID string
	From      string
	Token     uint64
	Direction domain.Direction
	Intent    Intent
}

// Resolution is the outcome of looking up a Request's target
type Resolution struct {
	Request
	Target string
	Err    error
}

// EffectKind distinguishes story navigation from leaving the viewer
type EffectKind int

const (
	EffectShow EffectKind = iota + 1
	EffectHome
)

// Effect is the externally observable result of an accepted intent
type Effect struct {
	Kind    EffectKind
	StoryID string
	Token   uint64
}
