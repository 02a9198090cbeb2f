// Package report writes a JSONL audit trail of scan passes, one file
// per pass, for post-hoc inspection of what the synchronizer did.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event
type EventType string

const (
	EventScanStart  EventType = "scan_start"
	EventAdd        EventType = "add"
	EventUpdate     EventType = "update"
	EventSkip       EventType = "skip"
	EventRemove     EventType = "remove"
	EventError      EventType = "error"
	EventScanFinish EventType = "scan_finish"
)

// Event represents a single event in the audit trail
type Event struct {
	Timestamp    time.Time         `json:"ts"`
	ScanID       string            `json:"scan_id"`
	Event        EventType         `json:"event"`
	Path         string            `json:"path,omitempty"`
	TrackID      int64             `json:"track_id,omitempty"`
	QualityScore float64           `json:"quality_score,omitempty"`
	Duration     int64             `json:"duration_ms,omitempty"`
	Error        string            `json:"error,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// AuditLogger writes events to a JSONL file. A nil logger is valid and
// discards everything.
type AuditLogger struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
	path    string
	scanID  string
	started time.Time
}

// NewAuditLogger creates an audit logger writing to a timestamped file
// under outputDir. Each logger carries a fresh scan id.
func NewAuditLogger(outputDir string) (*AuditLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("scan-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return &AuditLogger{
		file:    file,
		encoder: json.NewEncoder(file),
		path:    path,
		scanID:  uuid.NewString(),
		started: time.Now(),
	}, nil
}

// Log writes an event to the JSONL file
func (l *AuditLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.ScanID = l.scanID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogScanStart logs the opening event of a pass
func (l *AuditLogger) LogScanStart(root string) error {
	return l.Log(&Event{Event: EventScanStart, Path: root})
}

// LogAdd logs a newly catalogued file
func (l *AuditLogger) LogAdd(path string, trackID int64, qualityScore float64) error {
	return l.Log(&Event{Event: EventAdd, Path: path, TrackID: trackID, QualityScore: qualityScore})
}

// LogUpdate logs an in-place row update
func (l *AuditLogger) LogUpdate(path string, trackID int64, qualityScore float64) error {
	return l.Log(&Event{Event: EventUpdate, Path: path, TrackID: trackID, QualityScore: qualityScore})
}

// LogSkip logs an unchanged file
func (l *AuditLogger) LogSkip(path string) error {
	return l.Log(&Event{Event: EventSkip, Path: path})
}

// LogRemove logs a deleted catalog row
func (l *AuditLogger) LogRemove(path string, trackID int64) error {
	return l.Log(&Event{Event: EventRemove, Path: path, TrackID: trackID})
}

// LogError logs a per-file or fatal error
func (l *AuditLogger) LogError(path string, err error) error {
	return l.Log(&Event{Event: EventError, Path: path, Error: err.Error()})
}

// LogScanFinish logs the terminal event with summary counters
func (l *AuditLogger) LogScanFinish(added, updated, removed, skipped, errors int) error {
	if l == nil {
		return nil
	}
	return l.Log(&Event{
		Event:    EventScanFinish,
		Duration: time.Since(l.started).Milliseconds(),
		Extra: map[string]string{
			"added":   fmt.Sprintf("%d", added),
			"updated": fmt.Sprintf("%d", updated),
			"removed": fmt.Sprintf("%d", removed),
			"skipped": fmt.Sprintf("%d", skipped),
			"errors":  fmt.Sprintf("%d", errors),
		},
	})
}

// ScanID returns the id stamped on every event of this pass.
func (l *AuditLogger) ScanID() string {
	if l == nil {
		return ""
	}
	return l.scanID
}

// Path returns the path to the audit log file
func (l *AuditLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the audit log file
func (l *AuditLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
