package session

import (
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
)

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart     EventType = "session_start"
	EventSessionEnd       EventType = "session_complete"
	EventMessage          EventType = "message"
	EventFeedback         EventType = "feedback"
	EventOverlayShow      EventType = "overlay_show"
	EventOverlayHide      EventType = "overlay_hide"
	EventPlaybackComplete EventType = "playback_complete"
	EventError            EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// FromPlayback converts an engine event into its log form. The timestamp
// is the engine clock time of the change.
func FromPlayback(ev playback.Event) Event {
	out := Event{Timestamp: ev.At.UTC(), SessionID: ev.SessionID}
	switch ev.Type {
	case playback.EventSessionStarted:
		out.Type = EventSessionStart
		out.Data = copyData(ev.Details)
	case playback.EventMessage:
		out.Type = EventMessage
		if ev.Message != nil {
			out.Data = MessageData(*ev.Message)
		}
	case playback.EventFeedback:
		out.Type = EventFeedback
		if ev.Feedback != nil {
			out.Data = FeedbackData(*ev.Feedback)
		}
	case playback.EventOverlayShown:
		out.Type = EventOverlayShow
		out.Data = OverlayData(ev.Overlay, "")
		if ev.Replaced != nil {
			out.Data["replaced"] = ev.Replaced.FeedbackID
		}
	case playback.EventOverlayHidden:
		out.Type = EventOverlayHide
		out.Data = OverlayData(ev.Overlay, string(ev.Reason))
	case playback.EventPlaybackComplete:
		out.Type = EventPlaybackComplete
		out.Data = BreakdownData(ev.Breakdown)
	case playback.EventSessionStopped:
		out.Type = EventSessionEnd
		out.Data = BreakdownData(ev.Breakdown)
		for k, v := range ev.Details {
			out.Data[k] = v
		}
	default:
		out.Type = EventType(ev.Type)
		out.Data = copyData(ev.Details)
	}
	return out
}

// MessageData returns event data for an emitted dialogue line.
func MessageData(m models.Message) map[string]any {
	return map[string]any{
		"message_id": m.ID,
		"event_id":   m.EventID,
		"speaker":    string(m.Speaker),
		"text":       m.Text,
		"offset_ms":  m.ScriptOffset.Milliseconds(),
	}
}

// FeedbackData returns event data for a compliance finding.
func FeedbackData(fb models.Feedback) map[string]any {
	return map[string]any{
		"feedback_id": fb.ID,
		"message_id":  fb.MessageID,
		"severity":    string(fb.Severity),
		"category":    fb.Category,
		"description": fb.Description,
		"regulation":  fb.RegulationReference,
		"suggestion":  fb.SuggestedCorrection,
	}
}

// OverlayData returns event data for an overlay transition. reason is
// empty for a show.
func OverlayData(ov *models.Overlay, reason string) map[string]any {
	d := map[string]any{}
	if ov != nil {
		d["feedback_id"] = ov.FeedbackID
		d["severity"] = string(ov.Severity)
		d["category"] = ov.Category
	}
	if reason != "" {
		d["reason"] = reason
	}
	return d
}

// BreakdownData returns event data for a severity breakdown.
func BreakdownData(b models.Breakdown) map[string]any {
	return map[string]any{
		"high":   b.High,
		"medium": b.Medium,
		"low":    b.Low,
		"total":  b.Total,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}

func copyData(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
