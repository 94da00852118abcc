package session

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/eomgitae/care-console/internal/playback"
	"github.com/klauspost/compress/gzip"
)

// Logger defines the interface for session event logging.
type Logger interface {
	Log(event Event) error
	Close() error
}

// JSONLogger writes events as newline-delimited JSON (NDJSON). Paths ending
// in ".gz" are gzip-compressed.
type JSONLogger struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
	enc  *json.Encoder
	path string
}

// NewJSONLogger creates a logger that writes NDJSON to the given path.
// Parent directories are created automatically.
func NewJSONLogger(path string) (*JSONLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if isCompressed(path) {
		// A gzip stream cannot be appended to.
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}

	l := &JSONLogger{file: f, path: path}
	var w io.Writer = f
	if isCompressed(path) {
		l.gz = gzip.NewWriter(f)
		w = l.gz
	}
	l.enc = json.NewEncoder(w)
	return l, nil
}

// Log writes a single event as one JSON line.
func (l *JSONLogger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(event)
}

// Close flushes and closes the underlying file.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gz != nil {
		if err := l.gz.Close(); err != nil {
			l.file.Close() //nolint:errcheck
			return fmt.Errorf("flushing session log: %w", err)
		}
	}
	return l.file.Close()
}

// Path returns the file path of the session log.
func (l *JSONLogger) Path() string {
	return l.path
}

// NopLogger discards all events. Useful as a default when logging is disabled.
type NopLogger struct{}

// Log is a no-op.
func (NopLogger) Log(Event) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// Listener returns an engine listener that records every state change to
// l. Write failures are reported to logger and do not interrupt playback.
func Listener(l Logger, logger *slog.Logger) playback.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ev playback.Event) {
		if err := l.Log(FromPlayback(ev)); err != nil {
			logger.Warn("session log write failed", "event", ev.Type, "error", err)
		}
	}
}

// DefaultLogPath returns a timestamped session log path inside dir.
func DefaultLogPath(dir string, compress bool) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("%s-session.jsonl", ts)
	if compress {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}
