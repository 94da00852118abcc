package playback

import (
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// EventType identifies a state change reported to listeners.
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventMessage          EventType = "message"
	EventFeedback         EventType = "feedback"
	EventOverlayShown     EventType = "overlay_shown"
	EventOverlayHidden    EventType = "overlay_hidden"
	EventPlaybackComplete EventType = "playback_complete"
	EventSessionStopped   EventType = "session_stopped"
)

// HideReason says why an overlay went away.
type HideReason string

const (
	HideExpired   HideReason = "expired"
	HideDismissed HideReason = "dismissed"
	HideStopped   HideReason = "stopped"
)

// Event is delivered to listeners for every engine state change. Only the
// fields relevant to Type are set.
type Event struct {
	Type      EventType
	SessionID string
	At        time.Time

	Message  *models.Message
	Feedback *models.Feedback

	// Overlay is the overlay shown or hidden. Replaced is set on a show that
	// displaced a still-visible overlay.
	Overlay  *models.Overlay
	Replaced *models.Overlay
	Reason   HideReason

	Breakdown models.Breakdown
	Details   map[string]any
}

// Listener receives engine events. Listeners run synchronously while the
// engine holds its lock and must not call back into the Engine.
type Listener func(Event)

// OnMessage adapts fn into a Listener that only sees emitted messages.
func OnMessage(fn func(models.Message)) Listener {
	return func(ev Event) {
		if ev.Type == EventMessage && ev.Message != nil {
			fn(*ev.Message)
		}
	}
}

// OnFeedback adapts fn into a Listener that only sees created feedback.
func OnFeedback(fn func(models.Feedback)) Listener {
	return func(ev Event) {
		if ev.Type == EventFeedback && ev.Feedback != nil {
			fn(*ev.Feedback)
		}
	}
}

// OnOverlay adapts fn into a Listener that only sees overlay transitions.
func OnOverlay(fn func(Event)) Listener {
	return func(ev Event) {
		if ev.Type == EventOverlayShown || ev.Type == EventOverlayHidden {
			fn(ev)
		}
	}
}
