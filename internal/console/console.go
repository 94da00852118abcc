// Package console renders a playing consultation to a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
	"github.com/mattn/go-runewidth"
)

// Console prints engine events as they happen. It only observes the
// engine and never calls back into it.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	st    styles
	width int
	hint  string
}

// Option configures a Console.
type Option func(*Console)

// WithWidth sets the overlay box width. Zero keeps the default.
func WithWidth(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.width = n
		}
	}
}

// WithCompletionHint sets the line printed after the last scripted line.
func WithCompletionHint(s string) Option {
	return func(c *Console) { c.hint = s }
}

// New returns a Console writing to w. Colors are used only when w is a
// terminal that supports them.
func New(w io.Writer, opts ...Option) *Console {
	c := &Console{
		w:     w,
		st:    newStyles(lipgloss.NewRenderer(w)),
		width: 64,
		hint:  "Playback complete. Press Ctrl-C to end the consultation.",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Listener returns the engine listener that drives the console.
func (c *Console) Listener() playback.Listener {
	return c.Handle
}

// Handle renders one engine event.
func (c *Console) Handle(ev playback.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case playback.EventSessionStarted:
		c.println(c.st.title.Render(fmt.Sprintf("● 상담 시작  %s", ev.SessionID)))
		var parts []string
		if s, _ := ev.Details["agent"].(string); s != "" {
			parts = append(parts, "상담원 "+s)
		}
		if s, _ := ev.Details["customer"].(string); s != "" {
			parts = append(parts, "고객 "+s)
		}
		if s, _ := ev.Details["script"].(string); s != "" {
			parts = append(parts, "script "+s)
		}
		if len(parts) > 0 {
			c.println(c.st.dim.Render(strings.Join(parts, "  ·  ")))
		}
		c.println("")

	case playback.EventMessage:
		if ev.Message != nil {
			c.printMessage(*ev.Message)
		}

	case playback.EventFeedback:
		if fb := ev.Feedback; fb != nil {
			c.println(fmt.Sprintf("         %s %s",
				c.severityStyle(fb.Severity).Render("⚠ ["+fb.Severity.Label()+"]"),
				fb.Category))
		}

	case playback.EventOverlayShown:
		c.printOverlay(ev)

	case playback.EventOverlayHidden:
		if ov := ev.Overlay; ov != nil {
			c.println(c.st.dim.Render(fmt.Sprintf("         ▼ %s closed (%s)", ov.Category, ev.Reason)))
		}

	case playback.EventPlaybackComplete:
		c.println("")
		c.println(c.st.dim.Render(c.hint))

	case playback.EventSessionStopped:
		b := ev.Breakdown
		c.println("")
		summary := fmt.Sprintf("■ 상담 종료  %s  심각 %d · 경고 %d · 정보 %d", ev.SessionID, b.High, b.Medium, b.Low)
		if b.Clean() {
			c.println(c.st.success.Render(summary))
		} else {
			c.println(c.st.title.Render(summary))
		}
	}
}

func (c *Console) printMessage(m models.Message) {
	label := "상담원"
	style := c.st.agent
	if m.Speaker == models.SpeakerCustomer {
		label = "고객"
		style = c.st.customer
	}
	ts := c.st.dim.Render(formatOffset(m.ScriptOffset))
	c.println(fmt.Sprintf("%s %s %s", ts, style.Render(runewidth.FillRight(label, 6)), m.Text))
}

func (c *Console) printOverlay(ev playback.Event) {
	ov := ev.Overlay
	if ov == nil {
		return
	}
	sev := c.severityStyle(ov.Severity)
	lines := []string{sev.Render(fmt.Sprintf("[%s] %s", ov.Severity.Label(), ov.Category))}
	if ev.Replaced != nil {
		lines = append(lines, c.st.dim.Render("replaces "+ev.Replaced.Category))
	}
	if d := ov.ExpiresAt.Sub(ov.ShownAt); d > 0 {
		lines = append(lines, c.st.dim.Render(fmt.Sprintf("closes in %s", d.Round(time.Second))))
	}
	box := c.st.overlay.
		BorderForeground(sev.GetForeground()).
		Width(c.width).
		Render(strings.Join(lines, "\n"))
	c.println(indent(box, "         "))
}

func (c *Console) severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityHigh:
		return c.st.high
	case models.SeverityMedium:
		return c.st.medium
	}
	return c.st.low
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.w, s) //nolint:errcheck // display-only
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("[%02d:%02d]", int(d.Minutes()), int(d.Seconds())%60)
}

func indent(block, prefix string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
