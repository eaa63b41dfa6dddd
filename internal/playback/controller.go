package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/reel/internal/domain"
)

// DefaultInterval is the auto-advance period
const DefaultInterval = 5 * time.Second

// Controller is the per-viewer playback state machine.
// It is not safe for concurrent use; callers serialise every call
// (the Bubble Tea update loop does this).
type Controller struct {
	nav      domain.Navigator
	interval time.Duration
	logger   *slog.Logger
	base     *slog.Logger

	state   State
	mounted bool
	seq     uint64 // Last issued token, kept across sessions
}

// NewController creates a controller that resolves neighbors through nav
func NewController(nav domain.Navigator, interval time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		nav:      nav,
		interval: interval,
		logger:   logger,
		base:     logger,
	}
}

// Interval returns the auto-advance period
func (c *Controller) Interval() time.Duration { return c.interval }

// Navigator returns the navigator used to resolve requests
func (c *Controller) Navigator() domain.Navigator { return c.nav }

// SetNavigator swaps the navigator, e.g. to a snapshot pinned for this session
func (c *Controller) SetNavigator(nav domain.Navigator) { c.nav = nav }

// State returns a copy of the current session state
func (c *Controller) State() State { return c.state }

// Mounted reports whether a viewer session is active
func (c *Controller) Mounted() bool { return c.mounted }

func (c *Controller) nextToken() uint64 {
	c.seq++
	return c.seq
}

// Mount starts a session on id in the Loading phase with a fresh token
func (c *Controller) Mount(id string) State {
	sessionID := uuid.NewString()
	c.logger = c.base.With("session", sessionID)
	c.state = State{
		SessionID: sessionID,
		StoryID:   id,
		Phase:     Loading,
		Token:     c.nextToken(),
	}
	c.mounted = true
	c.logger.Info("viewer mounted", "story", id, "token", c.state.Token)
	return c.state
}

// Unmount ends the session; results still in flight are discarded on arrival
func (c *Controller) Unmount() {
	if !c.mounted {
		return
	}
	c.logger.Info("viewer unmounted", "story", c.state.StoryID)
	c.mounted = false
	c.state = State{}
	c.logger = c.base
}

// Begin captures the context of a navigation intent.
// ok is false when no session is mounted or the intent does not navigate.
func (c *Controller) Begin(intent Intent) (Request, bool) {
	if !c.mounted {
		return Request{}, false
	}
	dir, ok := intent.Direction()
	if !ok {
		return Request{}, false
	}
	return Request{
		SessionID: c.state.SessionID,
		From:      c.state.StoryID,
		Token:     c.state.Token,
		Direction: dir,
		Intent:    intent,
	}, true
}

// TimerFired begins a timer intent if token is still current.
// A tick armed for an earlier token belongs to a cancelled timer.
func (c *Controller) TimerFired(token uint64) (Request, bool) {
	if !c.mounted || token != c.state.Token {
		c.logger.Debug("stale tick ignored", "tick", token, "current", c.state.Token)
		return Request{}, false
	}
	return c.Begin(IntentTimer)
}

// Resolve looks up the target of req through the controller's navigator
func (c *Controller) Resolve(ctx context.Context, req Request) Resolution {
	return Resolve(ctx, c.nav, req)
}

// Resolve looks up the target of req through nav. It does not touch
// controller state and may run off the update loop.
func Resolve(ctx context.Context, nav domain.Navigator, req Request) Resolution {
	target, err := nav.Neighbor(ctx, req.From, req.Direction)
	return Resolution{Request: req, Target: target, Err: err}
}

// IsCurrent reports whether req was issued from the current session state
func (c *Controller) IsCurrent(req Request) bool {
	return c.mounted &&
		req.SessionID == c.state.SessionID &&
		req.From == c.state.StoryID &&
		req.Token == c.state.Token
}

// Apply performs the navigation effect for res.
// Results from another session, or issued before the current story changed,
// are discarded. A not-found result is a no-op. Otherwise the story, phase
// and token change together and an EffectShow is returned.
func (c *Controller) Apply(res Resolution) (Effect, bool) {
	if !c.mounted {
		return Effect{}, false
	}
	if !c.IsCurrent(res.Request) {
		c.logger.Debug("stale resolution discarded",
			"intent", res.Intent, "from", res.From, "token", res.Token,
			"current", c.state.StoryID, "currentToken", c.state.Token)
		return Effect{}, false
	}
	if res.Err != nil || res.Target == "" {
		c.logger.Debug("navigation dropped", "intent", res.Intent, "from", res.From, "error", res.Err)
		return Effect{}, false
	}

	next := c.state
	next.StoryID = res.Target
	next.Phase = Loading
	next.Token = c.nextToken()
	c.state = next

	c.logger.Info("navigated", "intent", res.Intent, "from", res.From, "to", res.Target, "token", next.Token)
	return Effect{Kind: EffectShow, StoryID: next.StoryID, Token: next.Token}, true
}

// ResourceReady moves Loading to Displaying for the current token
func (c *Controller) ResourceReady(token uint64) bool {
	if !c.mounted || token != c.state.Token || c.state.Phase != Loading {
		return false
	}
	c.state.Phase = Displaying
	return true
}

// ResourceFailed moves Loading to Error for the current token
func (c *Controller) ResourceFailed(token uint64) bool {
	if !c.mounted || token != c.state.Token || c.state.Phase != Loading {
		return false
	}
	c.state.Phase = Error
	c.logger.Warn("story image failed", "story", c.state.StoryID, "token", token)
	return true
}

// SetControlsVisible toggles the overlay controls. It never affects the phase.
func (c *Controller) SetControlsVisible(visible bool) {
	if c.mounted {
		c.state.ControlsVisible = visible
	}
}

// Dismiss returns the go-home effect
func (c *Controller) Dismiss() Effect {
	c.logger.Debug("viewer dismissed", "story", c.state.StoryID)
	return Effect{Kind: EffectHome}
}

// Step handles intent synchronously: Begin, Resolve and Apply in one call
// for navigation, and the direct effect for the others.
func (c *Controller) Step(ctx context.Context, intent Intent) (Effect, bool) {
	switch intent {
	case IntentDismiss:
		if !c.mounted {
			return Effect{}, false
		}
		return c.Dismiss(), true
	case IntentShowControls:
		c.SetControlsVisible(true)
		return Effect{}, false
	case IntentHideControls:
		c.SetControlsVisible(false)
		return Effect{}, false
	}

	req, ok := c.Begin(intent)
	if !ok {
		return Effect{}, false
	}
	return c.Apply(c.Resolve(ctx, req))
}
