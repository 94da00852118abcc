package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eomgitae/care-console/internal/models"
	"github.com/klauspost/compress/gzip"
)

// SessionFile represents a session log file on disk.
type SessionFile struct {
	Path       string
	Name       string
	Size       int64
	ModTime    time.Time
	NumEvents  int
	Compressed bool
}

// ListSessions finds session log files in dir, newest first.
func ListSessions(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() || !isSessionLog(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, SessionFile{
			Path:       path,
			Name:       e.Name(),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			NumEvents:  n,
			Compressed: isCompressed(path),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func isSessionLog(name string) bool {
	return strings.HasSuffix(name, "-session.jsonl") || strings.HasSuffix(name, "-session.jsonl.gz")
}

// openLog opens a session log, transparently decompressing ".gz" files.
func openLog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !isCompressed(path) {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, fmt.Errorf("reading gzip header: %w", err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close() //nolint:errcheck
	return g.file.Close()
}

func countLines(path string) (int, error) {
	r, err := openLog(path)
	if err != nil {
		return 0, err
	}
	defer r.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from a session log file.
func ReadEvents(path string) ([]Event, error) {
	r, err := openLog(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer r.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(r)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable session timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " CONSULTATION TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		elapsed := ev.Timestamp.Sub(start)
		ts := formatDuration(elapsed)

		switch ev.Type {
		case EventSessionStart:
			script := str(ev.Data["script"])
			agent := str(ev.Data["agent"])
			customer := str(ev.Data["customer"])
			lines := jsonNumber(ev.Data["events"])
			fmt.Fprintf(w, "[%s] 🚀 Session %s started  script=%s  agent=%s  customer=%s  lines=%d\n",
				ts, ev.SessionID, script, agent, customer, lines)

		case EventMessage:
			speaker := "상담원"
			if str(ev.Data["speaker"]) == string(models.SpeakerCustomer) {
				speaker = "고객"
			}
			fmt.Fprintf(w, "[%s] 💬 %s: %s\n", ts, speaker, str(ev.Data["text"]))

		case EventFeedback:
			sev := models.Severity(str(ev.Data["severity"]))
			fmt.Fprintf(w, "[%s]    ⚠  [%s] %s\n", ts, sev.Label(), str(ev.Data["category"]))
			if reg := str(ev.Data["regulation"]); reg != "" {
				fmt.Fprintf(w, "              %s\n", reg)
			}

		case EventOverlayShow:
			fmt.Fprintf(w, "[%s]    ▲ overlay %s\n", ts, str(ev.Data["feedback_id"]))

		case EventOverlayHide:
			fmt.Fprintf(w, "[%s]    ▼ overlay %s (%s)\n", ts, str(ev.Data["feedback_id"]), str(ev.Data["reason"]))

		case EventPlaybackComplete:
			fmt.Fprintf(w, "[%s] ✓  Playback complete  %d findings\n", ts, jsonNumber(ev.Data["total"]))

		case EventError:
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, str(ev.Data["message"]))

		case EventSessionEnd:
			fmt.Fprintf(w, "[%s] 🏁 Session complete  심각=%d  경고=%d  정보=%d  total=%d\n", ts,
				jsonNumber(ev.Data["high"]), jsonNumber(ev.Data["medium"]),
				jsonNumber(ev.Data["low"]), jsonNumber(ev.Data["total"]))

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

func str(v any) string {
	s, _ := v.(string) //nolint:errcheck
	return s
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}
