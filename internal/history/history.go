// Package history persists finished consultations and their fact checks.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
)

//go:generate mockgen -source=history.go -destination=mock_store.go -package=history

// ErrNotFound is returned when a consultation number does not exist.
var ErrNotFound = errors.New("consultation not found")

// Consultation is one stored session. FactChecks is populated by
// GetConsultation; list results leave it empty.
type Consultation struct {
	No         int64            `json:"no"`
	SessionID  string           `json:"session_id"`
	ScriptName string           `json:"script_name,omitempty"`
	Agent      models.Agent     `json:"agent"`
	Customer   models.Customer  `json:"customer"`
	StartedAt  time.Time        `json:"started_at"`
	EndedAt    time.Time        `json:"ended_at"`
	Messages   []models.Message `json:"messages,omitempty"`
	Breakdown  models.Breakdown `json:"breakdown"`
	CreatedAt  time.Time        `json:"created_at"`
	FactChecks []FactCheck      `json:"fact_checks,omitempty"`
}

// FactCheck is a stored compliance finding. Severity holds the display
// label (심각, 경고 or 정보).
type FactCheck struct {
	ID                int64     `json:"id"`
	ConsultationNo    int64     `json:"consultation_no"`
	FeedbackID        string    `json:"feedback_id"`
	MessageID         string    `json:"message_id"`
	Severity          string    `json:"severity"`
	Category          string    `json:"category"`
	DetectedStatement string    `json:"detected_statement"`
	Description       string    `json:"description"`
	Suggestion        string    `json:"suggestion"`
	Regulation        string    `json:"regulation"`
	CreatedAt         time.Time `json:"created_at"`
}

// Filter narrows ListConsultations. A zero Limit means no limit.
type Filter struct {
	CustomerName string
	Limit        int
	Offset       int
}

// Store is the handoff boundary for finished sessions.
type Store interface {
	SaveConsultation(ctx context.Context, c Consultation) (int64, error)
	GetConsultation(ctx context.Context, no int64) (Consultation, error)
	ListConsultations(ctx context.Context, f Filter) ([]Consultation, error)
	ListFactChecks(ctx context.Context, consultationNo int64) ([]FactCheck, error)
	DeleteConsultation(ctx context.Context, no int64) error
	Close() error
}

// FromOutcome converts a finished session into its stored form.
func FromOutcome(o models.Outcome) Consultation {
	c := Consultation{
		SessionID:  o.SessionID,
		ScriptName: o.ScriptName,
		Agent:      o.Agent,
		Customer:   o.Customer,
		StartedAt:  o.StartedAt,
		EndedAt:    o.EndedAt,
		Messages:   append([]models.Message(nil), o.Messages...),
		Breakdown:  models.ComputeBreakdown(o.Feedback),
	}
	for _, fb := range o.Feedback {
		c.FactChecks = append(c.FactChecks, FactCheck{
			FeedbackID:        fb.ID,
			MessageID:         fb.MessageID,
			Severity:          fb.Severity.Label(),
			Category:          fb.Category,
			DetectedStatement: fb.OriginalText,
			Description:       fb.Description,
			Suggestion:        fb.SuggestedCorrection,
			Regulation:        fb.RegulationReference,
			CreatedAt:         fb.CreatedAt,
		})
	}
	return c
}

// Outcome rebuilds the session outcome from a stored consultation. An
// empty fact check list yields a clean outcome.
func (c Consultation) Outcome() models.Outcome {
	o := models.Outcome{
		SessionID:  c.SessionID,
		ScriptName: c.ScriptName,
		Agent:      c.Agent,
		Customer:   c.Customer,
		StartedAt:  c.StartedAt,
		EndedAt:    c.EndedAt,
		Messages:   append([]models.Message(nil), c.Messages...),
	}
	for _, fc := range c.FactChecks {
		sev, err := models.ParseSeverity(fc.Severity)
		if err != nil {
			sev = models.SeverityLow
		}
		o.Feedback = append(o.Feedback, models.Feedback{
			ID:                  fc.FeedbackID,
			MessageID:           fc.MessageID,
			Severity:            sev,
			Category:            fc.Category,
			Description:         fc.Description,
			RegulationReference: fc.Regulation,
			SuggestedCorrection: fc.Suggestion,
			OriginalText:        fc.DetectedStatement,
			CreatedAt:           fc.CreatedAt,
		})
	}
	o.Breakdown = models.ComputeBreakdown(o.Feedback)
	return o
}

// Handoff returns an engine handoff that saves every stopped session to
// store. The assigned consultation number is passed to saved, if set.
func Handoff(store Store, logger *slog.Logger, saved func(no int64)) playback.HandoffFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, o models.Outcome) error {
		no, err := store.SaveConsultation(ctx, FromOutcome(o))
		if err != nil {
			return fmt.Errorf("saving consultation: %w", err)
		}
		logger.Info("consultation saved", "no", no, "session_id", o.SessionID, "fact_checks", len(o.Feedback))
		if saved != nil {
			saved(no)
		}
		return nil
	}
}

// Validate checks that a consultation can be stored.
func Validate(c Consultation) error {
	if strings.TrimSpace(c.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	for i, fc := range c.FactChecks {
		if _, err := models.ParseSeverity(fc.Severity); err != nil {
			return fmt.Errorf("fact check %d: %w", i, err)
		}
	}
	return nil
}

func matches(c Consultation, f Filter) bool {
	name := strings.TrimSpace(f.CustomerName)
	return name == "" || strings.Contains(c.Customer.Name, name)
}
