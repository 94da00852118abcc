package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// Text returns the plain-text consultation report.
func Text(outcome *models.Outcome) string {
	var b strings.Builder
	WriteText(&b, outcome) //nolint:errcheck // strings.Builder never fails
	return b.String()
}

// WriteText writes the plain-text consultation report: header, severity
// breakdown and numbered findings.
func WriteText(w io.Writer, outcome *models.Outcome) error {
	var b strings.Builder

	b.WriteString("=== Consultation Report ===\n\n")
	writeField(&b, "Session", outcome.SessionID)
	if outcome.ScriptName != "" {
		writeField(&b, "Script", outcome.ScriptName)
	}
	writeField(&b, "Agent", participant(outcome.Agent.Name, outcome.Agent.ID))
	writeField(&b, "Customer", participant(outcome.Customer.Name, outcome.Customer.Phone))
	if !outcome.StartedAt.IsZero() {
		writeField(&b, "Started", outcome.StartedAt.Format("2006-01-02 15:04:05"))
	}
	writeField(&b, "Duration", outcome.Duration().String())
	writeField(&b, "Messages", printer.Sprintf("%d", len(outcome.Messages)))
	b.WriteString("\n")

	bd := outcome.Breakdown
	b.WriteString(printer.Sprintf("Findings: 총 %d건\n", bd.Total))
	for _, sev := range models.Severities {
		b.WriteString(fmt.Sprintf("  %s %d\n", pad(sev.Label(), 6), bd.Count(sev)))
	}
	b.WriteString("\n")
	b.WriteString(InterpretBreakdown(bd))
	b.WriteString("\n")

	if len(outcome.Feedback) > 0 {
		b.WriteString("\n--- Findings ---\n")
		for i, fb := range outcome.Feedback {
			b.WriteString(fmt.Sprintf("\n%d. [%s] %s\n", i+1, fb.Severity.Label(), fb.Category))
			if s := statement(outcome, fb); s != "" {
				b.WriteString(fmt.Sprintf("   %s %s\n", pad("발언", 6), s))
			}
			if fb.Description != "" {
				b.WriteString(fmt.Sprintf("   %s %s\n", pad("내용", 6), fb.Description))
			}
			if fb.SuggestedCorrection != "" {
				b.WriteString(fmt.Sprintf("   %s %s\n", pad("권장", 6), fb.SuggestedCorrection))
			}
			if fb.RegulationReference != "" {
				b.WriteString(fmt.Sprintf("   %s %s\n", pad("근거", 6), fb.RegulationReference))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		value = "-"
	}
	b.WriteString(fmt.Sprintf("%-10s %s\n", name+":", value))
}

func participant(name, detail string) string {
	switch {
	case name == "":
		return detail
	case detail == "":
		return name
	}
	return fmt.Sprintf("%s (%s)", name, detail)
}

// pad right-fills s to a display width, counting wide runes as two columns.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
