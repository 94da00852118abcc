package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/eomgitae/care-console/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ListAndView(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCare(t, "session", "list")
	require.Error(t, err, "session directory does not exist yet")
	assert.Empty(t, out)

	_, err = playFast(t, "--no-history")
	require.NoError(t, err)

	out, err = runCare(t, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "-session.jsonl")

	files, err := session.ListSessions(filepath.Join(".care", "sessions"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err = runCare(t, "session", "view", files[0].Path)
	require.NoError(t, err)
	assert.Contains(t, out, "CONSULTATION TIMELINE")
	assert.Contains(t, out, "심각=3  경고=1  정보=0  total=4")
}

func TestSession_ViewMissingFile(t *testing.T) {
	_, err := runCare(t, "session", "view", filepath.Join(t.TempDir(), "missing-session.jsonl"))
	require.Error(t, err)
}

func TestPrintSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printSessions(&buf, nil)
	assert.Equal(t, "No session logs found.\n", buf.String())
}
