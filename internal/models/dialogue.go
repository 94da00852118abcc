package models

import "time"

// Speaker identifies who utters a dialogue line.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// Valid reports whether s is a known speaker.
func (s Speaker) Valid() bool {
	return s == SpeakerAgent || s == SpeakerCustomer
}

// AnnotationTemplate is the compliance finding attached to a scripted line.
// It becomes a Feedback once the line has been played.
type AnnotationTemplate struct {
	Severity            Severity `yaml:"severity" json:"severity"`
	Category            string   `yaml:"category" json:"category"`
	Description         string   `yaml:"description" json:"description"`
	RegulationReference string   `yaml:"regulation" json:"regulation_reference"`
	SuggestedCorrection string   `yaml:"suggestion" json:"suggested_correction"`
}

// DialogueEvent is one scripted line of a consultation. Events are created
// when a script is loaded and never mutated afterwards.
type DialogueEvent struct {
	ID         string              `json:"id"`
	Speaker    Speaker             `json:"speaker"`
	Text       string              `json:"text"`
	Offset     time.Duration       `json:"script_offset"`
	Annotation *AnnotationTemplate `json:"annotation,omitempty"`
}

// Annotated reports whether the event carries a compliance annotation.
func (e DialogueEvent) Annotated() bool {
	return e.Annotation != nil
}
