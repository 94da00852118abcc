package playback

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eomgitae/care-console/internal/clock"
	"github.com/eomgitae/care-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	events []Event
}

func (r *recorder) listen(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) types() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("S%03d", n)
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *clock.Virtual, *recorder) {
	t.Helper()
	clk := clock.NewVirtual(epoch)
	opts = append([]Option{WithSessionIDs(sequentialIDs())}, opts...)
	e := New(clk, opts...)
	rec := &recorder{}
	e.Subscribe(rec.listen)
	return e, clk, rec
}

func line(offset time.Duration, speaker models.Speaker, text string) models.DialogueEvent {
	return models.DialogueEvent{ID: text, Speaker: speaker, Text: text, Offset: offset}
}

func flagged(offset time.Duration, text string, sev models.Severity, category string) models.DialogueEvent {
	ev := line(offset, models.SpeakerAgent, text)
	ev.Annotation = &models.AnnotationTemplate{
		Severity:            sev,
		Category:            category,
		Description:         "desc " + category,
		RegulationReference: "reg " + category,
		SuggestedCorrection: "fix " + category,
	}
	return ev
}

func TestEngine_PlaysEveryEventInOrder(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	events := []models.DialogueEvent{
		line(1*time.Second, models.SpeakerAgent, "hello"),
		line(3*time.Second, models.SpeakerCustomer, "hi"),
		line(3*time.Second, models.SpeakerCustomer, "same offset"),
		line(7*time.Second, models.SpeakerAgent, "bye"),
	}
	require.NoError(t, e.Start(Run{Events: events}))

	clk.Advance(10 * time.Second)

	msgs := e.Messages()
	require.Len(t, msgs, len(events))
	for i, m := range msgs {
		assert.Equal(t, events[i].Text, m.Text)
		assert.Equal(t, events[i].Speaker, m.Speaker)
		assert.Equal(t, epoch.Add(events[i].Offset), m.EmittedAt)
		if i > 0 {
			assert.False(t, m.EmittedAt.Before(msgs[i-1].EmittedAt))
		}
	}
}

func TestEngine_AnnotationLinksToMessage(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(time.Second, "guaranteed returns", models.SeverityHigh, "misleading"),
	}}))

	clk.Advance(time.Second)
	require.Len(t, e.Messages(), 1)
	assert.Empty(t, e.Feedback(), "feedback trails the message")

	clk.Advance(DefaultFeedbackDelay)

	msgs := e.Messages()
	fbs := e.Feedback()
	require.Len(t, fbs, 1)
	fb := fbs[0]
	assert.Equal(t, msgs[0].ID, fb.MessageID)
	assert.True(t, fb.CreatedAt.After(msgs[0].EmittedAt))
	assert.Equal(t, "guaranteed returns", fb.OriginalText)
	assert.Equal(t, "reg misleading", fb.RegulationReference)
	assert.Equal(t, "fix misleading", fb.SuggestedCorrection)
	assert.True(t, msgs[0].HasFeedback)
	assert.Equal(t, fb.ID, msgs[0].FeedbackID)
}

func TestEngine_SingleHighFindingScenario(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		line(0, models.SpeakerAgent, "welcome"),
		flagged(2000*time.Millisecond, "only today", models.SeverityHigh, "X"),
	}}))

	clk.Advance(2500 * time.Millisecond)

	require.Len(t, e.Messages(), 2)
	fbs := e.Feedback()
	require.Len(t, fbs, 1)
	assert.Equal(t, models.SeverityHigh, fbs[0].Severity)
	assert.Equal(t, "X", fbs[0].Category)

	ov, ok := e.Overlay()
	require.True(t, ok)
	assert.Equal(t, fbs[0].ID, ov.FeedbackID)
	assert.Equal(t, OverlayShowing, e.OverlayState())

	clk.Advance(DefaultOverlayDuration)

	assert.Equal(t, OverlayIdle, e.OverlayState())
	shown := rec.ofType(EventOverlayShown)
	hidden := rec.ofType(EventOverlayHidden)
	require.Len(t, shown, 1)
	require.Len(t, hidden, 1)
	assert.Equal(t, HideExpired, hidden[0].Reason)
	assert.Equal(t, epoch.Add(2500*time.Millisecond+DefaultOverlayDuration), hidden[0].At)
	assert.Len(t, e.Feedback(), 1, "expiry keeps the feedback")
}

func TestEngine_ReplacementOverlay(t *testing.T) {
	e, clk, rec := newTestEngine(t, WithConfig(Config{OverlayDuration: 5 * time.Second}))
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "first", models.SeverityHigh, "A"),
		flagged(time.Second, "second", models.SeverityMedium, "B"),
	}}))

	clk.Advance(1500 * time.Millisecond)

	fbs := e.Feedback()
	require.Len(t, fbs, 2)
	ov, ok := e.Overlay()
	require.True(t, ok)
	assert.Equal(t, fbs[1].ID, ov.FeedbackID)

	shown := rec.ofType(EventOverlayShown)
	require.Len(t, shown, 2)
	require.NotNil(t, shown[1].Replaced)
	assert.Equal(t, fbs[0].ID, shown[1].Replaced.FeedbackID)

	// The first overlay's timer falls due at 5.5s and must not hide the second.
	clk.Advance(4500 * time.Millisecond)
	ov, ok = e.Overlay()
	require.True(t, ok)
	assert.Equal(t, fbs[1].ID, ov.FeedbackID)
	assert.Empty(t, rec.ofType(EventOverlayHidden))

	clk.Advance(time.Second)
	assert.Equal(t, OverlayIdle, e.OverlayState())
	hidden := rec.ofType(EventOverlayHidden)
	require.Len(t, hidden, 1)
	assert.Equal(t, fbs[1].ID, hidden[0].Overlay.FeedbackID)
}

func TestEngine_LowSeverityNeverShowsOverlay(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "minor", models.SeverityLow, "tone"),
	}}))

	clk.AdvanceToIdle()

	assert.Len(t, e.Feedback(), 1)
	assert.Empty(t, rec.ofType(EventOverlayShown))
	assert.Equal(t, OverlayIdle, e.OverlayState())
}

func TestEngine_DismissKeepsFeedback(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "risky", models.SeverityHigh, "A"),
	}}))
	clk.Advance(time.Second)

	assert.True(t, e.Dismiss())
	assert.False(t, e.Dismiss(), "second dismiss is a no-op")
	assert.Equal(t, OverlayIdle, e.OverlayState())
	assert.Len(t, e.Feedback(), 1)

	// The disarmed timer must not emit a second hide.
	clk.Advance(10 * time.Second)
	hidden := rec.ofType(EventOverlayHidden)
	require.Len(t, hidden, 1)
	assert.Equal(t, HideDismissed, hidden[0].Reason)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	handoffs := 0
	var handed models.Outcome
	e, clk, _ := newTestEngine(t, WithHandoff(func(_ context.Context, o models.Outcome) error {
		handoffs++
		handed = o
		return nil
	}))
	require.NoError(t, e.Start(Run{Name: "demo", Events: []models.DialogueEvent{
		line(0, models.SpeakerAgent, "a"),
		flagged(time.Second, "b", models.SeverityMedium, "M"),
	}}))
	clk.AdvanceToIdle()

	first, err := e.Stop(context.Background())
	require.NoError(t, err)
	second, err := e.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, handoffs)
	assert.Equal(t, first, handed)
	assert.Len(t, first.Messages, 2)
	assert.Len(t, first.Feedback, 1)
	assert.Equal(t, "demo", first.ScriptName)
	assert.Equal(t, StateInactive, e.State())
}

func TestEngine_StopBeforeAnyEventFires(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		line(0, models.SpeakerAgent, "zero"),
		flagged(time.Second, "one", models.SeverityHigh, "A"),
	}}))

	out, err := e.Stop(context.Background())
	require.NoError(t, err)
	clk.Advance(time.Minute)

	assert.Empty(t, out.Messages)
	assert.Empty(t, out.Feedback)
	assert.Empty(t, e.Messages())
	assert.Empty(t, rec.ofType(EventMessage))
}

func TestEngine_StopDropsPendingAnnotation(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "flagged", models.SeverityHigh, "A"),
		line(5*time.Second, models.SpeakerCustomer, "later"),
	}}))
	clk.Advance(100 * time.Millisecond)
	require.Len(t, e.Messages(), 1)

	out, err := e.Stop(context.Background())
	require.NoError(t, err)
	clk.Advance(time.Minute)

	assert.Len(t, out.Messages, 1)
	assert.Empty(t, out.Feedback)
	assert.Empty(t, rec.ofType(EventFeedback))
	assert.Len(t, e.Messages(), 1)
}

func TestEngine_StaleCallbackAfterRestartIsDropped(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "old", models.SeverityHigh, "A"),
	}}))
	clk.Advance(0)
	// Capture the annotation callback that would belong to the old run.
	_, err := e.Stop(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		line(time.Second, models.SpeakerAgent, "new"),
	}}))
	// A continuation from the first run fires late.
	e.annotate(1, "msg-S001-1", models.AnnotationTemplate{Severity: models.SeverityHigh})
	clk.AdvanceToIdle()

	assert.Empty(t, e.Feedback())
	require.Len(t, e.Messages(), 1)
	assert.Equal(t, "new", e.Messages()[0].Text)
}

func TestEngine_StopClearsOverlay(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "x", models.SeverityHigh, "A"),
	}}))
	clk.Advance(time.Second)
	require.Equal(t, OverlayShowing, e.OverlayState())

	_, err := e.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OverlayIdle, e.OverlayState())
	hidden := rec.ofType(EventOverlayHidden)
	require.Len(t, hidden, 1)
	assert.Equal(t, HideStopped, hidden[0].Reason)
}

func TestEngine_StopWithoutStart(t *testing.T) {
	e, _, _ := newTestEngine(t)
	out, err := e.Stop(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.SessionID)
	assert.Empty(t, out.Messages)
}

func TestEngine_StartWhileActive(t *testing.T) {
	e, _, _ := newTestEngine(t)
	run := Run{Events: []models.DialogueEvent{line(0, models.SpeakerAgent, "a")}}
	require.NoError(t, e.Start(run))

	err := e.Start(run)

	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "S001", e.SessionID())
}

func TestEngine_StartRejectsInvalidScript(t *testing.T) {
	tests := []struct {
		name   string
		events []models.DialogueEvent
	}{
		{name: "empty", events: nil},
		{name: "decreasing offsets", events: []models.DialogueEvent{
			line(2*time.Second, models.SpeakerAgent, "a"),
			line(time.Second, models.SpeakerAgent, "b"),
		}},
		{name: "negative offset", events: []models.DialogueEvent{
			line(-time.Second, models.SpeakerAgent, "a"),
		}},
		{name: "unknown speaker", events: []models.DialogueEvent{
			line(0, models.Speaker("narrator"), "a"),
		}},
		{name: "unknown severity", events: []models.DialogueEvent{
			flagged(0, "a", models.Severity("critical"), "c"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, rec := newTestEngine(t)
			err := e.Start(Run{Events: tt.events})
			require.ErrorIs(t, err, ErrInvalidScript)
			assert.Equal(t, StateInactive, e.State())
			assert.Empty(t, rec.events)
		})
	}
}

func TestEngine_RestartBeginsEmpty(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	run := Run{Events: []models.DialogueEvent{
		flagged(0, "a", models.SeverityLow, "L"),
	}}
	require.NoError(t, e.Start(run))
	clk.AdvanceToIdle()
	first, err := e.Stop(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.Start(run))
	assert.Empty(t, e.Messages())
	assert.Empty(t, e.Feedback())
	assert.NotEqual(t, first.SessionID, e.SessionID())

	clk.AdvanceToIdle()
	second, err := e.Stop(context.Background())
	require.NoError(t, err)
	assert.Len(t, second.Feedback, 1)
	assert.Len(t, first.Feedback, 1, "a handed-off outcome is not touched by later runs")
}

func TestEngine_BreakdownAddsUp(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "a", models.SeverityHigh, "1"),
		flagged(time.Second, "b", models.SeverityMedium, "2"),
		line(2*time.Second, models.SpeakerCustomer, "c"),
		flagged(3*time.Second, "d", models.SeverityLow, "3"),
		flagged(4*time.Second, "e", models.SeverityHigh, "4"),
	}}))

	for range 10 {
		clk.Advance(500 * time.Millisecond)
		b := e.Breakdown()
		assert.Equal(t, b.Total, b.High+b.Medium+b.Low)
		assert.Equal(t, len(e.Feedback()), b.Total)
	}

	b := e.Breakdown()
	assert.Equal(t, models.Breakdown{High: 2, Medium: 1, Low: 1, Total: 4}, b)
	for _, ev := range rec.ofType(EventFeedback) {
		assert.Equal(t, ev.Breakdown.Total, ev.Breakdown.High+ev.Breakdown.Medium+ev.Breakdown.Low)
	}
}

func TestEngine_DoneAfterPlaybackCompletes(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		line(0, models.SpeakerAgent, "a"),
		flagged(time.Second, "b", models.SeverityHigh, "A"),
	}}))
	done := e.Done()

	clk.Advance(time.Second)
	select {
	case <-done:
		t.Fatal("done before the annotation was produced")
	default:
	}

	clk.Advance(DefaultFeedbackDelay)
	select {
	case <-done:
	default:
		t.Fatal("done not closed after playback completed")
	}
	require.Len(t, rec.ofType(EventPlaybackComplete), 1)
	assert.Equal(t, StateActive, e.State(), "completion does not stop the session")
}

func TestEngine_FeedbackDelayOverlappingNextEvent(t *testing.T) {
	e, clk, rec := newTestEngine(t, WithConfig(Config{FeedbackDelay: 1500 * time.Millisecond}))
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "first", models.SeverityMedium, "A"),
		line(time.Second, models.SpeakerCustomer, "second"),
	}}))

	clk.AdvanceToIdle()

	var order []string
	for _, ev := range rec.events {
		switch ev.Type {
		case EventMessage:
			order = append(order, "msg:"+ev.Message.Text)
		case EventFeedback:
			order = append(order, "fb:"+ev.Feedback.OriginalText)
		}
	}
	assert.Equal(t, []string{"msg:first", "msg:second", "fb:first"}, order)
}

func TestEngine_HandoffErrorIsReturnedOnce(t *testing.T) {
	boom := errors.New("store unavailable")
	calls := 0
	e, clk, _ := newTestEngine(t, WithHandoff(func(context.Context, models.Outcome) error {
		calls++
		return boom
	}))
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{line(0, models.SpeakerAgent, "a")}}))
	clk.AdvanceToIdle()

	out, err := e.Stop(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Len(t, out.Messages, 1)

	_, err = e.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEngine_EventSequence(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		flagged(0, "a", models.SeverityHigh, "A"),
	}}))
	clk.AdvanceToIdle()
	_, err := e.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventSessionStarted,
		EventMessage,
		EventFeedback,
		EventOverlayShown,
		EventPlaybackComplete,
		EventOverlayHidden,
		EventSessionStopped,
	}, rec.types())
}

func TestListenerAdapters(t *testing.T) {
	e, clk, _ := newTestEngine(t)
	var msgs []models.Message
	var fbs []models.Feedback
	var overlays []Event
	e.Subscribe(OnMessage(func(m models.Message) { msgs = append(msgs, m) }))
	e.Subscribe(OnFeedback(func(f models.Feedback) { fbs = append(fbs, f) }))
	e.Subscribe(OnOverlay(func(ev Event) { overlays = append(overlays, ev) }))

	require.NoError(t, e.Start(Run{Events: []models.DialogueEvent{
		line(0, models.SpeakerCustomer, "q"),
		flagged(time.Second, "a", models.SeverityMedium, "M"),
	}}))
	clk.AdvanceToIdle()

	assert.Len(t, msgs, 2)
	assert.Len(t, fbs, 1)
	require.Len(t, overlays, 2)
	assert.Equal(t, EventOverlayShown, overlays[0].Type)
	assert.Equal(t, EventOverlayHidden, overlays[1].Type)
}

func TestEngine_OverlayExpiryUnderSpeed(t *testing.T) {
	clk := clock.NewRealtime(clock.WithSpeed(10))
	e := New(clk, WithConfig(Config{FeedbackDelay: 100 * time.Millisecond, OverlayDuration: 2 * time.Second}))

	var shown models.Overlay
	hidden := make(chan Event, 1)
	e.Subscribe(OnOverlay(func(ev Event) {
		if ev.Type == EventOverlayShown {
			shown = *ev.Overlay
			return
		}
		hidden <- ev
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go clk.Run(ctx) //nolint:errcheck

	wallStart := time.Now()
	require.NoError(t, e.Start(Run{Name: "speed", Events: []models.DialogueEvent{{
		ID: "a", Speaker: models.SpeakerAgent, Text: "확정 수익입니다", Offset: 100 * time.Millisecond,
		Annotation: &models.AnnotationTemplate{Severity: models.SeverityHigh, Category: "수익률 단정적 판단"},
	}}}))

	select {
	case ev := <-hidden:
		assert.Equal(t, HideExpired, ev.Reason)
		assert.Equal(t, 2*time.Second, shown.ExpiresAt.Sub(shown.ShownAt))
		assert.False(t, ev.At.Before(shown.ExpiresAt), "hidden at %v, expires %v", ev.At, shown.ExpiresAt)
		assert.Less(t, time.Since(wallStart), 2*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("overlay did not expire")
	}

	out, err := e.Stop(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	// Message times share the timeline base with the overlay.
	assert.GreaterOrEqual(t, out.Messages[0].EmittedAt.Sub(out.StartedAt), 90*time.Millisecond)
}
