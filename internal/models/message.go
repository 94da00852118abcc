package models

import "time"

// Message is the realized occurrence of a DialogueEvent during a run.
type Message struct {
	ID           string        `json:"id"`
	EventID      string        `json:"event_id"`
	Speaker      Speaker       `json:"speaker"`
	Text         string        `json:"text"`
	ScriptOffset time.Duration `json:"script_offset"`
	EmittedAt    time.Time     `json:"emitted_at"`
	HasFeedback  bool          `json:"has_feedback"`
	FeedbackID   string        `json:"feedback_id,omitempty"`
}

// Feedback is a compliance finding linked to the Message it was raised on.
type Feedback struct {
	ID                  string    `json:"id"`
	MessageID           string    `json:"message_id"`
	Severity            Severity  `json:"severity"`
	Category            string    `json:"category"`
	Description         string    `json:"description"`
	RegulationReference string    `json:"regulation_reference"`
	SuggestedCorrection string    `json:"suggested_correction"`
	OriginalText        string    `json:"original_text"`
	CreatedAt           time.Time `json:"created_at"`
}

// Overlay is the advisory shown for a high or medium Feedback until it
// expires or is dismissed.
type Overlay struct {
	FeedbackID string    `json:"feedback_id"`
	Severity   Severity  `json:"severity"`
	Category   string    `json:"category"`
	ShownAt    time.Time `json:"shown_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
