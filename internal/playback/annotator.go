package playback

import (
	"fmt"
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// annotate materializes tmpl as a Feedback on the session message msgID.
// The message is marked as carrying feedback. ErrMissingReferent is
// returned when the message is not part of sess.
func annotate(sess *Session, msgID string, tmpl models.AnnotationTemplate, now time.Time) (models.Feedback, error) {
	idx := sess.messageIndex(msgID)
	if idx < 0 {
		return models.Feedback{}, fmt.Errorf("annotating %s: %w", msgID, ErrMissingReferent)
	}

	msg := &sess.messages[idx]
	fb := models.Feedback{
		ID:                  sess.nextFeedbackID(),
		MessageID:           msg.ID,
		Severity:            tmpl.Severity,
		Category:            tmpl.Category,
		Description:         tmpl.Description,
		RegulationReference: tmpl.RegulationReference,
		SuggestedCorrection: tmpl.SuggestedCorrection,
		OriginalText:        msg.Text,
		CreatedAt:           now,
	}
	sess.feedback = append(sess.feedback, fb)

	msg.HasFeedback = true
	msg.FeedbackID = fb.ID
	return fb, nil
}
