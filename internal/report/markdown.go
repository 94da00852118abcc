package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders the consultation report as Markdown: a summary table, the
// findings and the full transcript with flagged lines marked.
func Markdown(outcome *models.Outcome) string {
	var b strings.Builder

	title := outcome.ScriptName
	if title == "" {
		title = "Consultation"
	}
	fmt.Fprintf(&b, "# %s (%s)\n\n", escape(title), outcome.SessionID)

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Agent | %s |\n", escape(participant(outcome.Agent.Name, outcome.Agent.ID)))
	fmt.Fprintf(&b, "| Customer | %s |\n", escape(participant(outcome.Customer.Name, outcome.Customer.Phone)))
	fmt.Fprintf(&b, "| Duration | %s |\n", outcome.Duration())
	fmt.Fprintf(&b, "| Messages | %d |\n\n", len(outcome.Messages))

	bd := outcome.Breakdown
	b.WriteString("## Summary\n\n")
	b.WriteString("| 심각 | 경고 | 정보 | Total |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", bd.High, bd.Medium, bd.Low, bd.Total)
	b.WriteString(InterpretBreakdown(bd))
	b.WriteString("\n\n")

	if len(outcome.Feedback) > 0 {
		b.WriteString("## Findings\n\n")
		for i, fb := range outcome.Feedback {
			fmt.Fprintf(&b, "### %d. [%s] %s\n\n", i+1, fb.Severity.Label(), escape(fb.Category))
			if s := statement(outcome, fb); s != "" {
				fmt.Fprintf(&b, "> %s\n\n", escape(s))
			}
			if fb.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", escape(fb.Description))
			}
			if fb.SuggestedCorrection != "" {
				fmt.Fprintf(&b, "- **권장 멘트:** %s\n", escape(fb.SuggestedCorrection))
			}
			if fb.RegulationReference != "" {
				fmt.Fprintf(&b, "- **관련 규정:** %s\n", escape(fb.RegulationReference))
			}
			b.WriteString("\n")
		}
	}

	if len(outcome.Messages) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, m := range outcome.Messages {
			mark := ""
			if m.HasFeedback {
				mark = " ⚠"
			}
			fmt.Fprintf(&b, "- `%s` **%s**%s: %s\n", formatOffset(m), speakerLabel(m.Speaker), mark, escape(m.Text))
		}
	}

	return b.String()
}

// WriteHTML renders the Markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, outcome *models.Outcome) error {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(outcome)), &body); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	_, err := fmt.Fprintf(w, htmlPage, outcome.SessionID, body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>Consultation %s</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.75rem; }
blockquote { border-left: 4px solid #d33; margin-left: 0; padding-left: 1rem; color: #444; }
</style>
</head>
<body>
%s</body>
</html>
`

func formatOffset(m models.Message) string {
	d := m.ScriptOffset
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return mdEscaper.Replace(s)
}
