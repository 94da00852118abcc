// Package playback plays a scripted consultation against a clock, turns
// annotated lines into compliance feedback, drives the advisory overlay and
// hands the collected feedback off when the session stops.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eomgitae/care-console/internal/clock"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultFeedbackDelay is how long feedback trails the message it is
	// raised on.
	DefaultFeedbackDelay = 500 * time.Millisecond

	// DefaultOverlayDuration is how long an overlay stays up unless it is
	// replaced or dismissed.
	DefaultOverlayDuration = 5 * time.Second
)

// State is the session lifecycle state of an Engine.
type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// HandoffFunc receives the final outcome of a session exactly once, when
// the session stops.
type HandoffFunc func(ctx context.Context, outcome models.Outcome) error

// Config holds engine timing.
type Config struct {
	FeedbackDelay   time.Duration
	OverlayDuration time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets engine timing. Zero or negative values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.FeedbackDelay > 0 {
			e.cfg.FeedbackDelay = cfg.FeedbackDelay
		}
		if cfg.OverlayDuration > 0 {
			e.cfg.OverlayDuration = cfg.OverlayDuration
		}
	}
}

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHandoff registers the receiver of the final outcome.
func WithHandoff(fn HandoffFunc) Option {
	return func(e *Engine) {
		e.handoff = fn
	}
}

// WithSessionIDs overrides how session IDs are generated.
func WithSessionIDs(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newSessionID = fn
		}
	}
}

// Engine plays one session at a time. All state changes, whether they come
// from clock callbacks or from Start, Stop and Dismiss, are serialized on a
// single lock.
type Engine struct {
	clock        clock.Scheduler
	cfg          Config
	logger       *slog.Logger
	handoff      HandoffFunc
	newSessionID func() string

	mu       sync.Mutex
	gen      uint64
	state    State
	session  *Session
	overlay  *overlayManager
	last     *models.Outcome
	pending  int
	complete bool
	done     chan struct{}

	listenersMu sync.Mutex
	listeners   []Listener
}

// New creates an engine driven by clk.
func New(clk clock.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		clock: clk,
		cfg: Config{
			FeedbackDelay:   DefaultFeedbackDelay,
			OverlayDuration: DefaultOverlayDuration,
		},
		logger:       slog.Default(),
		newSessionID: defaultSessionID,
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	e.overlay = newOverlayManager(e.cfg.OverlayDuration)
	return e
}

func defaultSessionID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Config returns the effective timing configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Subscribe registers a listener for engine events.
func (e *Engine) Subscribe(l Listener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) emit(ev Event) {
	e.listenersMu.Lock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Start begins playing run. It fails with ErrInvalidScript when the events
// are not playable and with ErrInvalidState when a session is already
// active; in both cases nothing changes.
func (e *Engine) Start(run Run) error {
	if err := ValidateEvents(run.Events); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateActive {
		e.logger.Warn("start ignored: session already active", "session_id", e.session.ID)
		return fmt.Errorf("starting playback: session %s is active: %w", e.session.ID, ErrInvalidState)
	}

	e.gen++
	gen := e.gen
	e.clock.Restart()

	e.session = newSession(e.newSessionID(), run, e.clock.Now())
	e.overlay.clear()
	e.last = nil
	e.state = StateActive
	e.pending = len(run.Events)
	e.complete = false
	e.done = make(chan struct{})

	e.logger.Debug("session started", "session_id", e.session.ID, "events", len(run.Events))
	e.emit(Event{
		Type:      EventSessionStarted,
		SessionID: e.session.ID,
		At:        e.session.StartedAt,
		Details: map[string]any{
			"script":   run.Name,
			"events":   len(run.Events),
			"agent":    run.Agent.Name,
			"customer": run.Customer.Name,
		},
	})

	for _, ev := range run.Events {
		e.clock.ScheduleAt(ev.Offset, func() { e.fire(gen, ev) })
	}
	return nil
}

// fire emits the message for ev and queues its annotation.
func (e *Engine) fire(gen uint64, ev models.DialogueEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StateActive {
		return
	}

	msg := e.session.appendMessage(ev, e.clock.Now())
	e.emit(Event{Type: EventMessage, SessionID: e.session.ID, At: msg.EmittedAt, Message: &msg})

	if ev.Annotation != nil {
		e.pending++
		tmpl := *ev.Annotation
		e.clock.After(e.cfg.FeedbackDelay, func() { e.annotate(gen, msg.ID, tmpl) })
	}
	e.settle()
}

func (e *Engine) annotate(gen uint64, msgID string, tmpl models.AnnotationTemplate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.state != StateActive {
		e.logger.Debug("annotation dropped", "message_id", msgID, "error", ErrMissingReferent)
		return
	}

	fb, err := annotate(e.session, msgID, tmpl, e.clock.Now())
	if err != nil {
		e.logger.Debug("annotation dropped", "message_id", msgID, "error", err)
		e.settle()
		return
	}
	e.emit(Event{Type: EventFeedback, SessionID: e.session.ID, At: fb.CreatedAt, Feedback: &fb, Breakdown: e.session.Breakdown()})

	if fb.Severity.RaisesOverlay() {
		e.showOverlay(gen, fb)
	}
	e.settle()
}

func (e *Engine) showOverlay(gen uint64, fb models.Feedback) {
	ov, replaced, token := e.overlay.show(fb, e.clock.Now())
	e.emit(Event{Type: EventOverlayShown, SessionID: e.session.ID, At: ov.ShownAt, Overlay: &ov, Replaced: replaced})
	e.clock.After(e.cfg.OverlayDuration, func() { e.expireOverlay(gen, token) })
}

func (e *Engine) expireOverlay(gen uint64, token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return
	}
	if ov, ok := e.overlay.expire(token); ok {
		e.emit(Event{Type: EventOverlayHidden, SessionID: e.session.ID, At: e.clock.Now(), Overlay: &ov, Reason: HideExpired})
	}
}

// settle retires one scheduled step and reports completion once every
// message and annotation of the run has been produced.
func (e *Engine) settle() {
	e.pending--
	if e.pending > 0 || e.complete {
		return
	}
	e.complete = true
	close(e.done)
	e.emit(Event{
		Type:      EventPlaybackComplete,
		SessionID: e.session.ID,
		At:        e.clock.Now(),
		Breakdown: e.session.Breakdown(),
	})
}

// Dismiss hides the visible overlay. It reports whether one was showing.
// The feedback behind the overlay is kept.
func (e *Engine) Dismiss() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ov, ok := e.overlay.clear()
	if !ok {
		return false
	}
	e.emit(Event{Type: EventOverlayHidden, SessionID: e.session.ID, At: e.clock.Now(), Overlay: &ov, Reason: HideDismissed})
	return true
}

// Stop ends the active session. Pending messages and annotations are
// canceled, the overlay is cleared and the final outcome is handed off.
// Calling Stop again before the next Start returns the same outcome
// without a second handoff. A handoff error is returned alongside the
// outcome.
func (e *Engine) Stop(ctx context.Context) (models.Outcome, error) {
	e.mu.Lock()
	if e.state != StateActive {
		defer e.mu.Unlock()
		if e.last != nil {
			e.logger.Warn("stop ignored: session already stopped", "session_id", e.last.SessionID)
			return cloneOutcome(*e.last), nil
		}
		e.logger.Warn("stop ignored: no session started")
		return models.Outcome{}, nil
	}

	e.gen++
	e.clock.CancelAll()
	now := e.clock.Now()
	if ov, ok := e.overlay.clear(); ok {
		e.emit(Event{Type: EventOverlayHidden, SessionID: e.session.ID, At: now, Overlay: &ov, Reason: HideStopped})
	}

	e.state = StateInactive
	e.session.EndedAt = now
	out := e.session.Outcome()
	e.last = &out
	e.emit(Event{
		Type:      EventSessionStopped,
		SessionID: out.SessionID,
		At:        now,
		Breakdown: out.Breakdown,
		Details: map[string]any{
			"messages": len(out.Messages),
			"feedback": len(out.Feedback),
			"complete": e.complete,
		},
	})
	handoff := e.handoff
	e.mu.Unlock()

	e.logger.Debug("session stopped", "session_id", out.SessionID, "messages", len(out.Messages), "feedback", len(out.Feedback))
	if handoff == nil {
		return cloneOutcome(out), nil
	}
	if err := handoff(ctx, cloneOutcome(out)); err != nil {
		return cloneOutcome(out), fmt.Errorf("handing off session %s: %w", out.SessionID, err)
	}
	return cloneOutcome(out), nil
}

// Done is closed once every message and annotation of the current run has
// been produced. It never closes for a run stopped early.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// State returns the session lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// OverlayState returns whether an overlay is showing.
func (e *Engine) OverlayState() OverlayState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlay.state()
}

// Overlay returns the visible overlay, if any.
func (e *Engine) Overlay() (models.Overlay, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlay.visible()
}

// SessionID returns the ID of the current or last session.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ""
	}
	return e.session.ID
}

// Messages returns the message log of the current or last session.
func (e *Engine) Messages() []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return e.session.Messages()
}

// Feedback returns the feedback of the current or last session.
func (e *Engine) Feedback() []models.Feedback {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return e.session.Feedback()
}

// Breakdown returns live severity counts for the current or last session.
func (e *Engine) Breakdown() models.Breakdown {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return models.Breakdown{}
	}
	return e.session.Breakdown()
}

func cloneOutcome(o models.Outcome) models.Outcome {
	o.Messages = append([]models.Message(nil), o.Messages...)
	o.Feedback = append([]models.Feedback(nil), o.Feedback...)
	return o
}
