package models

import "time"

// Agent identifies the advisor running a consultation.
type Agent struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
}

// Customer holds the profile shown next to a consultation.
type Customer struct {
	Name                 string `yaml:"name" json:"name"`
	Phone                string `yaml:"phone" json:"phone"`
	Age                  int    `yaml:"age,omitempty" json:"age,omitempty"`
	Grade                string `yaml:"grade,omitempty" json:"grade,omitempty"`
	InvestmentExperience string `yaml:"investment_experience,omitempty" json:"investment_experience,omitempty"`
	RiskTolerance        string `yaml:"risk_tolerance,omitempty" json:"risk_tolerance,omitempty"`
	InvestmentPurpose    string `yaml:"investment_purpose,omitempty" json:"investment_purpose,omitempty"`
}

// Breakdown counts feedback per severity.
type Breakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// Count returns the number of findings with the given severity.
func (b Breakdown) Count(s Severity) int {
	switch s {
	case SeverityHigh:
		return b.High
	case SeverityMedium:
		return b.Medium
	case SeverityLow:
		return b.Low
	}
	return 0
}

// Clean reports whether no findings were recorded.
func (b Breakdown) Clean() bool {
	return b.Total == 0
}

// ComputeBreakdown derives severity counts from a feedback collection.
// Feedback with an unknown severity is counted as low so that the counts
// always add up to the collection size.
func ComputeBreakdown(feedback []Feedback) Breakdown {
	var b Breakdown
	for _, fb := range feedback {
		switch fb.Severity {
		case SeverityHigh:
			b.High++
		case SeverityMedium:
			b.Medium++
		default:
			b.Low++
		}
	}
	b.Total = len(feedback)
	return b
}

// Outcome is the final state of a playback session handed to the history
// and reporting layers when the session stops.
type Outcome struct {
	SessionID  string     `json:"session_id"`
	ScriptName string     `json:"script_name,omitempty"`
	Agent      Agent      `json:"agent"`
	Customer   Customer   `json:"customer"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    time.Time  `json:"ended_at"`
	Messages   []Message  `json:"messages"`
	Feedback   []Feedback `json:"feedback"`
	Breakdown  Breakdown  `json:"breakdown"`
}

// Duration is the time between start and stop.
func (o *Outcome) Duration() time.Duration {
	if o.EndedAt.IsZero() || o.StartedAt.IsZero() {
		return 0
	}
	return o.EndedAt.Sub(o.StartedAt)
}

// MessageByID finds a message in the outcome.
func (o *Outcome) MessageByID(id string) (Message, bool) {
	for _, m := range o.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// HighestSeverity returns the most serious severity recorded, or "" when
// the outcome is clean.
func (o *Outcome) HighestSeverity() Severity {
	var top Severity
	for _, fb := range o.Feedback {
		if fb.Severity.Rank() > top.Rank() {
			top = fb.Severity
		}
	}
	return top
}
