package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Consultation recorded, nothing at or above --fail-on
	ExitFindings = 1 // Findings at or above the --fail-on severity
	ExitError    = 2 // Configuration or runtime error
)

// FindingsError indicates that the consultation ran to completion but
// produced findings at or above the requested severity.
type FindingsError struct {
	Message string
}

func (e *FindingsError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var findingsErr *FindingsError
		if errors.As(err, &findingsErr) {
			os.Exit(ExitFindings)
		}

		os.Exit(ExitError)
	}
}
