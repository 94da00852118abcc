package main

import (
	"bytes"
	"strings"
	"testing"
)

// runCare executes the root command with args in the current directory and
// returns its stdout.
func runCare(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

// playFast plays the built-in consultation to completion.
func playFast(t *testing.T, extra ...string) (string, error) {
	t.Helper()
	args := append([]string{"play", "--customer", "홍길동", "--speed", "1000", "--auto-stop"}, extra...)
	return runCare(t, args...)
}
