// Package logging provides the diagnostic console logger and the per-session
// JSONL journal of completed actions.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how an action ended.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeEdited  Outcome = "edited"
	OutcomeDeleted Outcome = "deleted"
	OutcomeAborted Outcome = "aborted"
)

// Event is one journal line.
type Event struct {
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	Action  string    `json:"action"`
	Outcome Outcome   `json:"outcome"`
	Subject string    `json:"subject,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Recorder accepts journal events.
type Recorder interface {
	Record(Event) error
}

// Discard is a Recorder that drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Event) error { return nil }

// Journal appends events for one session to <dir>/<run id>.jsonl.
type Journal struct {
	Dir     string
	RunID   string
	LogPath string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewJournal creates the journal directory and this session's file.
func NewJournal(dir string) (*Journal, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal dir is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	id := runID(time.Now())
	logPath := filepath.Join(dir, id+".jsonl")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create journal file: %w", err)
	}

	return &Journal{
		Dir:     dir,
		RunID:   id,
		LogPath: logPath,
		file:    file,
		enc:     json.NewEncoder(file),
		now:     time.Now,
	}, nil
}

// Record appends event, filling in the time and session id when unset.
func (j *Journal) Record(event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal closed")
	}
	if event.Time.IsZero() {
		event.Time = j.now().UTC()
	}
	if event.Session == "" {
		event.Session = j.RunID
	}
	if err := j.enc.Encode(event); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// runID returns a sortable, unique session id.
func runID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// FindLatestLog finds the latest JSONL journal in a directory. It returns
// an empty path when the directory holds none.
func FindLatestLog(logDir string) (string, error) {
	runs, err := FindLogRuns(logDir)
	if err != nil || len(runs) == 0 {
		return "", err
	}
	return runs[0].Path, nil
}

// LogRun describes one session journal.
type LogRun struct {
	RunID   string
	Path    string
	ModTime time.Time
}

// FindLogRuns lists the journals in logDir, newest first.
func FindLogRuns(logDir string) ([]LogRun, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	var runs []LogRun
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, LogRun{
			RunID:   strings.TrimSuffix(name, ".jsonl"),
			Path:    filepath.Join(logDir, name),
			ModTime: info.ModTime(),
		})
	}

	// Run ids start with a UTC timestamp, so they break mod time ties.
	sort.Slice(runs, func(i, k int) bool {
		if !runs[i].ModTime.Equal(runs[k].ModTime) {
			return runs[i].ModTime.After(runs[k].ModTime)
		}
		return runs[i].RunID > runs[k].RunID
	})
	return runs, nil
}

// ReadEvents decodes every event of a journal file.
func ReadEvents(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var events []Event
	dec := json.NewDecoder(file)
	for dec.More() {
		var event Event
		if err := dec.Decode(&event); err != nil {
			return events, fmt.Errorf("decode journal %s: %w", path, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// TailLog writes the last n lines of the journal at path to w. A
// non-positive n writes the whole file.
func TailLog(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
