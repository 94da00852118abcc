package playback

import (
	"fmt"
	"slices"
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// Run describes one playback: who is talking and what they say.
type Run struct {
	Name     string
	Agent    models.Agent
	Customer models.Customer
	Events   []models.DialogueEvent
}

// Session is the aggregate for a single playback run. It owns the ordered
// message log and feedback collection.
type Session struct {
	ID        string
	Name      string
	Agent     models.Agent
	Customer  models.Customer
	StartedAt time.Time
	EndedAt   time.Time

	messages []models.Message
	feedback []models.Feedback
}

func newSession(id string, run Run, startedAt time.Time) *Session {
	return &Session{
		ID:        id,
		Name:      run.Name,
		Agent:     run.Agent,
		Customer:  run.Customer,
		StartedAt: startedAt,
		messages:  make([]models.Message, 0, len(run.Events)),
	}
}

// appendMessage records the occurrence of ev at time at.
func (s *Session) appendMessage(ev models.DialogueEvent, at time.Time) models.Message {
	msg := models.Message{
		ID:           fmt.Sprintf("msg-%s-%d", s.ID, len(s.messages)+1),
		EventID:      ev.ID,
		Speaker:      ev.Speaker,
		Text:         ev.Text,
		ScriptOffset: ev.Offset,
		EmittedAt:    at,
	}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) messageIndex(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) nextFeedbackID() string {
	return fmt.Sprintf("fb-%s-%d", s.ID, len(s.feedback)+1)
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []models.Message {
	return slices.Clone(s.messages)
}

// Feedback returns a copy of the feedback collection in creation order.
func (s *Session) Feedback() []models.Feedback {
	return slices.Clone(s.feedback)
}

// Breakdown is recomputed from the live feedback collection.
func (s *Session) Breakdown() models.Breakdown {
	return models.ComputeBreakdown(s.feedback)
}

// Outcome snapshots the session. Slices are copied so later runs can't
// change a handed-off outcome.
func (s *Session) Outcome() models.Outcome {
	return models.Outcome{
		SessionID:  s.ID,
		ScriptName: s.Name,
		Agent:      s.Agent,
		Customer:   s.Customer,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Messages:   s.Messages(),
		Feedback:   s.Feedback(),
		Breakdown:  s.Breakdown(),
	}
}
