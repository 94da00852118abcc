package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleOutcome(customer string) models.Outcome {
	return models.Outcome{
		SessionID:  "S1",
		ScriptName: "pension",
		Agent:      models.Agent{ID: "A-1234", Name: "김민지"},
		Customer:   models.Customer{Name: customer, Phone: "010-1234-5678"},
		StartedAt:  epoch,
		EndedAt:    epoch.Add(30 * time.Second),
		Messages: []models.Message{
			{ID: "msg-S1-1", Speaker: models.SpeakerAgent, Text: "월 32,000원입니다", HasFeedback: true, FeedbackID: "fb-S1-1"},
			{ID: "msg-S1-2", Speaker: models.SpeakerAgent, Text: "오늘까지만입니다", HasFeedback: true, FeedbackID: "fb-S1-2"},
		},
		Feedback: []models.Feedback{
			{ID: "fb-S1-1", MessageID: "msg-S1-1", Severity: models.SeverityHigh, Category: "상품 정보 오안내", OriginalText: "월 32,000원입니다"},
			{ID: "fb-S1-2", MessageID: "msg-S1-2", Severity: models.SeverityMedium, Category: "시간압박성 권유", OriginalText: "오늘까지만입니다"},
		},
	}
}

func TestFromOutcome(t *testing.T) {
	c := FromOutcome(sampleOutcome("홍길동"))

	assert.Equal(t, "S1", c.SessionID)
	assert.Equal(t, models.Breakdown{High: 1, Medium: 1, Total: 2}, c.Breakdown)
	require.Len(t, c.FactChecks, 2)
	assert.Equal(t, "심각", c.FactChecks[0].Severity)
	assert.Equal(t, "경고", c.FactChecks[1].Severity)
	assert.Equal(t, "월 32,000원입니다", c.FactChecks[0].DetectedStatement)

	back := c.Outcome()
	assert.Equal(t, models.SeverityHigh, back.Feedback[0].Severity)
	assert.Equal(t, models.SeverityMedium, back.Feedback[1].Severity)
	assert.Equal(t, c.Breakdown, back.Breakdown)
}

func TestOutcomeWithoutFactChecksIsClean(t *testing.T) {
	o := Consultation{SessionID: "S9"}.Outcome()
	assert.Empty(t, o.Feedback)
	assert.True(t, o.Breakdown.Clean())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(Consultation{}))
	assert.Error(t, Validate(Consultation{SessionID: "S1", FactChecks: []FactCheck{{Severity: "치명"}}}))
	assert.NoError(t, Validate(Consultation{SessionID: "S1", FactChecks: []FactCheck{{Severity: "정보"}}}))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.now = func() time.Time { return epoch }

	no1, err := s.SaveConsultation(ctx, FromOutcome(sampleOutcome("홍길동")))
	require.NoError(t, err)
	no2, err := s.SaveConsultation(ctx, FromOutcome(models.Outcome{SessionID: "S2", Customer: models.Customer{Name: "김철수"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), no1)
	assert.Equal(t, int64(2), no2)

	got, err := s.GetConsultation(ctx, no1)
	require.NoError(t, err)
	assert.Equal(t, epoch, got.CreatedAt)
	require.Len(t, got.FactChecks, 2)
	assert.Equal(t, no1, got.FactChecks[0].ConsultationNo)

	list, err := s.ListConsultations(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, no2, list[0].No, "newest first")
	assert.Nil(t, list[0].FactChecks)

	list, err = s.ListConsultations(ctx, Filter{CustomerName: "길동"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, no1, list[0].No)

	list, err = s.ListConsultations(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, no1, list[0].No)

	list, err = s.ListConsultations(ctx, Filter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, list)

	checks, err := s.ListFactChecks(ctx, no2)
	require.NoError(t, err)
	assert.Empty(t, checks, "a clean consultation has no fact checks")

	require.NoError(t, s.DeleteConsultation(ctx, no1))
	_, err = s.GetConsultation(ctx, no1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteConsultation(ctx, no1), ErrNotFound)
	_, err = s.ListFactChecks(ctx, no1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	no, err := s.SaveConsultation(ctx, FromOutcome(sampleOutcome("홍길동")))
	require.NoError(t, err)

	got, err := s.GetConsultation(ctx, no)
	require.NoError(t, err)
	got.FactChecks[0].Category = "changed"

	again, err := s.GetConsultation(ctx, no)
	require.NoError(t, err)
	assert.Equal(t, "상품 정보 오안내", again.FactChecks[0].Category)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().SaveConsultation(ctx, Consultation{SessionID: "S1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandoffSavesOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	out := sampleOutcome("홍길동")
	store.EXPECT().
		SaveConsultation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c Consultation) (int64, error) {
			assert.Equal(t, "S1", c.SessionID)
			assert.Len(t, c.FactChecks, 2)
			return 7, nil
		})

	var saved int64
	err := Handoff(store, nil, func(no int64) { saved = no })(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved)
}

func TestHandoffWrapsStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	boom := errors.New("disk full")
	store.EXPECT().SaveConsultation(gomock.Any(), gomock.Any()).Return(int64(0), boom)

	called := false
	err := Handoff(store, nil, func(int64) { called = true })(context.Background(), sampleOutcome("홍길동"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}
