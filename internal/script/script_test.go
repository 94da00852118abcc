package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/eomgitae/care-console/internal/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, "pension-savings-insurance", s.Name)
	assert.Equal(t, "embedded", s.Source)
	require.Len(t, s.Lines, 15)
	assert.Equal(t, 4, s.AnnotatedCount())
	assert.Equal(t, 29*time.Second, s.Length())
	assert.Equal(t, "김민지", s.Agent.Name)
	assert.Equal(t, 33, s.Customer.Age)

	assert.Equal(t, time.Second, s.Lines[0].At)
	assert.Equal(t, "line-01", s.Lines[0].ID)

	third := s.Lines[2]
	require.NotNil(t, third.Annotation)
	assert.Equal(t, models.SeverityHigh, third.Annotation.Severity)
	assert.Equal(t, "상품 정보 오안내", third.Annotation.Category)
	assert.Contains(t, third.Annotation.RegulationReference, "제19조")

	ninth := s.Lines[8]
	require.NotNil(t, ninth.Annotation)
	assert.Equal(t, models.SeverityMedium, ninth.Annotation.Severity)
}

func TestDefaultBytesIsCopy(t *testing.T) {
	b := DefaultBytes()
	b[0] = '#'
	assert.NotEqual(t, b[0], DefaultBytes()[0])
}

func TestParse_IntegerOffsetIsMilliseconds(t *testing.T) {
	s, err := Parse([]byte(`
name: ints
events:
  - at: 0
    speaker: agent
    text: hello
  - at: 1500
    speaker: customer
    text: hi
`))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), s.Lines[0].At)
	assert.Equal(t, 1500*time.Millisecond, s.Lines[1].At)
}

func TestParse_KoreanSeverityLabel(t *testing.T) {
	s, err := Parse([]byte(`
name: labels
events:
  - id: greet
    at: 1s
    speaker: agent
    text: 확정 수익입니다
    annotation:
      severity: 경고
      category: 단정적 표현
`))
	require.NoError(t, err)
	require.NotNil(t, s.Lines[0].Annotation)
	assert.Equal(t, "greet", s.Lines[0].ID)
	assert.Equal(t, models.SeverityMedium, s.Lines[0].Annotation.Severity)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			doc:     "name: [unclosed",
			wantMsg: "YAML parse error",
		},
		{
			name:    "no events",
			doc:     "name: empty\nevents: []\n",
			wantMsg: "/events",
		},
		{
			name: "unknown speaker",
			doc: `
name: bad
events:
  - at: 1s
    speaker: narrator
    text: once upon a time
`,
			wantMsg: "/events/0/speaker",
		},
		{
			name: "unknown field",
			doc: `
name: bad
events:
  - at: 1s
    speaker: agent
    text: hello
    mood: cheerful
`,
			wantMsg: "/events/0",
		},
		{
			name: "decreasing offsets",
			doc: `
name: bad
events:
  - at: 5s
    speaker: agent
    text: first
  - at: 2s
    speaker: customer
    text: second
`,
			wantMsg: "offset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, playback.ErrInvalidScript)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateBytes(t *testing.T) {
	assert.Nil(t, ValidateBytes(DefaultBytes()))

	problems := ValidateBytes([]byte("events: []\n"))
	assert.NotEmpty(t, problems)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: short
events:
  - at: 100ms
    speaker: customer
    text: 여보세요
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, 100*time.Millisecond, s.Length())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, playback.ErrInvalidScript)
}

func TestRun_RendersParticipants(t *testing.T) {
	s := Default()

	run, err := s.Run(models.Agent{}, models.Customer{Name: "홍길동", Phone: "010-1234-5678"})
	require.NoError(t, err)

	assert.Equal(t, s.Name, run.Name)
	assert.Equal(t, "김민지", run.Agent.Name)
	assert.Equal(t, "홍길동", run.Customer.Name)
	assert.Equal(t, "010-1234-5678", run.Customer.Phone)
	assert.Equal(t, 33, run.Customer.Age)
	require.Len(t, run.Events, 15)
	assert.Contains(t, run.Events[0].Text, "홍길동 고객님")
	assert.NotContains(t, run.Events[0].Text, "{{")

	// The script itself keeps its template text.
	assert.Contains(t, s.Lines[0].Text, "{{.Customer.Name}}")
}

func TestRun_IsolatesAnnotations(t *testing.T) {
	s := Default()
	run, err := s.Run(models.Agent{}, models.Customer{})
	require.NoError(t, err)

	run.Events[2].Annotation.Category = "changed"
	assert.Equal(t, "상품 정보 오안내", s.Lines[2].Annotation.Category)
}

func TestRun_MissingVariable(t *testing.T) {
	s, err := Parse([]byte(`
name: vars
events:
  - at: 1s
    speaker: agent
    text: "{{.Vars.product}} 안내드립니다"
`))
	require.NoError(t, err)

	_, err = s.Run(models.Agent{}, models.Customer{})
	require.Error(t, err)

	s.Vars = map[string]string{"product": "연금저축"}
	run, err := s.Run(models.Agent{}, models.Customer{})
	require.NoError(t, err)
	assert.Equal(t, "연금저축 안내드립니다", run.Events[0].Text)
}
