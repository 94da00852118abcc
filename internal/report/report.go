// Package report renders the outcome of a consultation as plain text,
// Markdown, HTML or JUnit XML.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/eomgitae/care-console/internal/models"
)

// Format selects a report renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJUnit    Format = "junit"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatHTML, FormatJUnit}

// ParseFormat resolves a format name. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "junit", "xml":
		return FormatJUnit, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, markdown, html or junit)", s)
}

// Write renders outcome in the given format.
func Write(w io.Writer, f Format, outcome *models.Outcome) error {
	switch f {
	case FormatText:
		return WriteText(w, outcome)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(outcome))
		return err
	case FormatHTML:
		return WriteHTML(w, outcome)
	case FormatJUnit:
		return WriteJUnit(w, outcome)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// InterpretBreakdown returns a plain-language verdict for a breakdown.
func InterpretBreakdown(b models.Breakdown) string {
	switch {
	case b.Total == 0:
		return "No compliance issues detected."
	case b.High > 0:
		return fmt.Sprintf("Serious violations found (%d high). Review before closing the consultation.", b.High)
	case b.Medium > 0:
		return fmt.Sprintf("Warnings found (%d medium). Follow up with the customer.", b.Medium)
	default:
		return "Only informational findings."
	}
}

// statement returns the flagged line for a finding, preferring the text
// captured on the feedback itself.
func statement(outcome *models.Outcome, fb models.Feedback) string {
	if fb.OriginalText != "" {
		return fb.OriginalText
	}
	if m, ok := outcome.MessageByID(fb.MessageID); ok {
		return m.Text
	}
	return ""
}

func speakerLabel(s models.Speaker) string {
	if s == models.SpeakerCustomer {
		return "고객"
	}
	return "상담원"
}
