package models

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a compliance finding is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Labels used by the consultation backend for stored fact checks.
const (
	LabelHigh   = "심각"
	LabelMedium = "경고"
	LabelLow    = "정보"
)

// Severities lists every severity from most to least serious.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// RaisesOverlay reports whether feedback of this severity is surfaced as an
// advisory overlay. Low severity findings are recorded only.
func (s Severity) RaisesOverlay() bool {
	return s == SeverityHigh || s == SeverityMedium
}

// Rank orders severities; higher is more serious. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Label returns the backend label for s.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return LabelHigh
	case SeverityMedium:
		return LabelMedium
	case SeverityLow:
		return LabelLow
	}
	return string(s)
}

// ParseSeverity accepts either the English name or the backend label.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "high", LabelHigh:
		return SeverityHigh, nil
	case "medium", LabelMedium:
		return SeverityMedium, nil
	case "low", LabelLow:
		return SeverityLow, nil
	}
	return "", fmt.Errorf("unknown severity %q", v)
}
