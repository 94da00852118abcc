// Package spinner draws a one-line progress indicator on a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval is the time between frames.
const Interval = 80 * time.Millisecond

// Start animates message on w until the returned stop function is called,
// then clears the line. Writers that are not terminals get nothing.
func Start(w io.Writer, message string) (stop func()) {
	if !isTerminal(w) {
		return func() {}
	}
	return run(w, message)
}

func run(w io.Writer, message string) func() {
	done := make(chan struct{})
	cleared := make(chan struct{})
	blank := strings.Repeat(" ", runewidth.StringWidth(message)+2)
	var stopOnce sync.Once

	go func() {
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", blank) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
