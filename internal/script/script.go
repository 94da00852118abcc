// Package script loads consultation timelines: declarative lists of dialogue
// lines with offsets and optional compliance annotations.
package script

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
	"github.com/eomgitae/care-console/internal/template"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios/pension.yaml
var defaultScenario []byte

// Line is one scripted dialogue line before participant rendering.
type Line struct {
	ID         string                     `yaml:"id,omitempty"`
	At         time.Duration              `yaml:"at"`
	Speaker    models.Speaker             `yaml:"speaker"`
	Text       string                     `yaml:"text"`
	Annotation *models.AnnotationTemplate `yaml:"annotation,omitempty"`
}

// Script is a loaded timeline. Agent and Customer are defaults that the
// caller may override when building a Run.
type Script struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Agent       models.Agent      `yaml:"agent,omitempty"`
	Customer    models.Customer   `yaml:"customer,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	Lines       []Line            `yaml:"events"`

	// Source is the file the script was loaded from, or "embedded".
	Source string `yaml:"-"`
}

// ValidationError lists every problem found in a script document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid script: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return playback.ErrInvalidScript
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// Default returns the built-in pension insurance consultation.
func Default() *Script {
	s, err := Parse(defaultScenario)
	if err != nil {
		panic(fmt.Sprintf("embedded scenario is invalid: %v", err))
	}
	s.Source = "embedded"
	return s
}

// DefaultBytes returns the raw YAML of the built-in scenario.
func DefaultBytes() []byte {
	return append([]byte(nil), defaultScenario...)
}

// Parse validates YAML script bytes against the schema, decodes them and
// checks the timeline. Errors wrap playback.ErrInvalidScript.
func Parse(data []byte) (*Script, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("YAML parse error: %v", err)}}
	}
	if problems := validateDocument(doc); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var s Script
	if err := decode(doc, &s); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateBytes returns every problem found in script bytes, or nil when
// the script is playable.
func ValidateBytes(data []byte) []string {
	_, err := Parse(data)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Problems
	}
	return []string{err.Error()}
}

// Validate normalizes severities and checks that the timeline is playable.
func (s *Script) Validate() error {
	var problems []string
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.ID == "" {
			l.ID = fmt.Sprintf("line-%02d", i+1)
		}
		if l.Annotation == nil {
			continue
		}
		sev, err := models.ParseSeverity(string(l.Annotation.Severity))
		if err != nil {
			problems = append(problems, fmt.Sprintf("/events/%d/annotation/severity: %v", i, err))
			continue
		}
		l.Annotation.Severity = sev
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	if err := playback.ValidateEvents(s.rawEvents()); err != nil {
		return &ValidationError{Problems: []string{strings.TrimPrefix(err.Error(), playback.ErrInvalidScript.Error()+": ")}}
	}
	return nil
}

func (s *Script) rawEvents() []models.DialogueEvent {
	events := make([]models.DialogueEvent, len(s.Lines))
	for i, l := range s.Lines {
		events[i] = models.DialogueEvent{ID: l.ID, Speaker: l.Speaker, Text: l.Text, Offset: l.At}
		if l.Annotation != nil {
			a := *l.Annotation
			events[i].Annotation = &a
		}
	}
	return events
}

// AnnotatedCount returns the number of lines carrying an annotation.
func (s *Script) AnnotatedCount() int {
	n := 0
	for _, l := range s.Lines {
		if l.Annotation != nil {
			n++
		}
	}
	return n
}

// Length is the offset of the last line.
func (s *Script) Length() time.Duration {
	if len(s.Lines) == 0 {
		return 0
	}
	return s.Lines[len(s.Lines)-1].At
}

// Run builds a playback run. Non-empty fields of agent and customer
// override the script defaults, and line text is rendered against the
// resulting participants.
func (s *Script) Run(agent models.Agent, customer models.Customer) (playback.Run, error) {
	a := mergeAgent(s.Agent, agent)
	c := mergeCustomer(s.Customer, customer)
	ctx := &template.Context{Agent: a, Customer: c, Vars: s.Vars}

	events := s.rawEvents()
	for i := range events {
		text, err := template.Render(events[i].Text, ctx)
		if err != nil {
			return playback.Run{}, fmt.Errorf("rendering line %s: %w", events[i].ID, err)
		}
		events[i].Text = text
	}
	return playback.Run{Name: s.Name, Agent: a, Customer: c, Events: events}, nil
}

func mergeAgent(base, over models.Agent) models.Agent {
	if over.ID != "" {
		base.ID = over.ID
	}
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Branch != "" {
		base.Branch = over.Branch
	}
	return base
}

func mergeCustomer(base, over models.Customer) models.Customer {
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Phone != "" {
		base.Phone = over.Phone
	}
	if over.Age != 0 {
		base.Age = over.Age
	}
	if over.Grade != "" {
		base.Grade = over.Grade
	}
	if over.InvestmentExperience != "" {
		base.InvestmentExperience = over.InvestmentExperience
	}
	if over.RiskTolerance != "" {
		base.RiskTolerance = over.RiskTolerance
	}
	if over.InvestmentPurpose != "" {
		base.InvestmentPurpose = over.InvestmentPurpose
	}
	return base
}

var durationType = reflect.TypeOf(time.Duration(0))

// millisecondsHook reads bare integer offsets as milliseconds.
func millisecondsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case uint64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	}
	return data, nil
}

func decode(doc any, out *Script) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      out,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			millisecondsHook,
		),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("decoding script: %w", err)
	}
	return nil
}
