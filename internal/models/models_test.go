package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{in: "high", want: SeverityHigh},
		{in: " Medium ", want: SeverityMedium},
		{in: "low", want: SeverityLow},
		{in: LabelHigh, want: SeverityHigh},
		{in: LabelMedium, want: SeverityMedium},
		{in: LabelLow, want: SeverityLow},
		{in: "critical", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_RaisesOverlay(t *testing.T) {
	assert.True(t, SeverityHigh.RaisesOverlay())
	assert.True(t, SeverityMedium.RaisesOverlay())
	assert.False(t, SeverityLow.RaisesOverlay())
	assert.False(t, Severity("").RaisesOverlay())
}

func TestSeverity_LabelRoundTrip(t *testing.T) {
	for _, s := range Severities {
		got, err := ParseSeverity(s.Label())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestComputeBreakdown(t *testing.T) {
	fbs := []Feedback{
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
		{Severity: Severity("odd")},
	}

	b := ComputeBreakdown(fbs)

	assert.Equal(t, Breakdown{High: 2, Medium: 1, Low: 2, Total: 5}, b)
	assert.Equal(t, b.Total, b.High+b.Medium+b.Low)
	assert.Equal(t, 2, b.Count(SeverityHigh))
	assert.False(t, b.Clean())
	assert.True(t, ComputeBreakdown(nil).Clean())
}

func TestOutcome_Helpers(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o := Outcome{
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Second),
		Messages:  []Message{{ID: "m1", Text: "hi"}},
		Feedback:  []Feedback{{Severity: SeverityLow}, {Severity: SeverityMedium}},
	}

	assert.Equal(t, 90*time.Second, o.Duration())
	m, ok := o.MessageByID("m1")
	require.True(t, ok)
	assert.Equal(t, "hi", m.Text)
	_, ok = o.MessageByID("missing")
	assert.False(t, ok)
	assert.Equal(t, SeverityMedium, o.HighestSeverity())
	assert.Equal(t, Severity(""), (&Outcome{}).HighestSeverity())
}
