package playback

import (
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// OverlayState is the state of the overlay lifecycle.
type OverlayState int

const (
	OverlayIdle OverlayState = iota
	OverlayShowing
)

func (s OverlayState) String() string {
	if s == OverlayShowing {
		return "showing"
	}
	return "idle"
}

// overlayManager holds at most one overlay. Each show takes a new token;
// an expiry carrying an older token is ignored, which is how a replaced
// overlay's timer is disarmed.
type overlayManager struct {
	duration time.Duration
	current  *models.Overlay
	token    uint64
}

func newOverlayManager(d time.Duration) *overlayManager {
	return &overlayManager{duration: d}
}

func (o *overlayManager) state() OverlayState {
	if o.current != nil {
		return OverlayShowing
	}
	return OverlayIdle
}

// show displays an overlay for fb, replacing any visible one. It returns
// the new overlay, the replaced one if any, and the token its expiry
// must present.
func (o *overlayManager) show(fb models.Feedback, now time.Time) (models.Overlay, *models.Overlay, uint64) {
	replaced := o.current
	o.token++
	ov := models.Overlay{
		FeedbackID: fb.ID,
		Severity:   fb.Severity,
		Category:   fb.Category,
		ShownAt:    now,
		ExpiresAt:  now.Add(o.duration),
	}
	o.current = &ov
	return ov, replaced, o.token
}

// expire hides the overlay if token still identifies it.
func (o *overlayManager) expire(token uint64) (models.Overlay, bool) {
	if o.current == nil || token != o.token {
		return models.Overlay{}, false
	}
	return o.clear()
}

// clear hides the current overlay, if any.
func (o *overlayManager) clear() (models.Overlay, bool) {
	if o.current == nil {
		return models.Overlay{}, false
	}
	ov := *o.current
	o.current = nil
	return ov, true
}

func (o *overlayManager) visible() (models.Overlay, bool) {
	if o.current == nil {
		return models.Overlay{}, false
	}
	return *o.current, true
}
