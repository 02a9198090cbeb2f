package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestNilLoggerDiscardsEverything(t *testing.T) {
	var l *AuditLogger

	if err := l.LogScanStart("/music"); err != nil {
		t.Fatalf("LogScanStart on nil logger: %v", err)
	}
	if err := l.LogAdd("/music/a.mp3", 1, 9.8); err != nil {
		t.Fatalf("LogAdd on nil logger: %v", err)
	}
	if err := l.LogUpdate("/music/a.mp3", 1, 9.8); err != nil {
		t.Fatalf("LogUpdate on nil logger: %v", err)
	}
	if err := l.LogSkip("/music/a.mp3"); err != nil {
		t.Fatalf("LogSkip on nil logger: %v", err)
	}
	if err := l.LogRemove("/music/a.mp3", 1); err != nil {
		t.Fatalf("LogRemove on nil logger: %v", err)
	}
	if err := l.LogError("/music/a.mp3", errors.New("boom")); err != nil {
		t.Fatalf("LogError on nil logger: %v", err)
	}
	if err := l.LogScanFinish(1, 2, 3, 4, 5); err != nil {
		t.Fatalf("LogScanFinish on nil logger: %v", err)
	}
	if got := l.ScanID(); got != "" {
		t.Errorf("ScanID on nil logger = %q, want empty", got)
	}
	if got := l.Path(); got != "" {
		t.Errorf("Path on nil logger = %q, want empty", got)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close on nil logger: %v", err)
	}
}

func TestAuditLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	l, err := NewAuditLogger(dir)
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	if l.ScanID() == "" {
		t.Error("expected a non-empty scan id")
	}

	if err := l.LogScanStart("/music"); err != nil {
		t.Fatalf("LogScanStart: %v", err)
	}
	if err := l.LogAdd("/music/a.mp3", 7, 8.0); err != nil {
		t.Fatalf("LogAdd: %v", err)
	}
	if err := l.LogScanFinish(1, 0, 0, 0, 0); err != nil {
		t.Fatalf("LogScanFinish: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(l.Path())
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad audit line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan audit log: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []EventType{EventScanStart, EventAdd, EventScanFinish}
	for i, ev := range events {
		if ev.Event != want[i] {
			t.Errorf("event %d = %q, want %q", i, ev.Event, want[i])
		}
		if ev.ScanID != l.ScanID() {
			t.Errorf("event %d scan_id = %q, want %q", i, ev.ScanID, l.ScanID())
		}
	}
	if events[1].TrackID != 7 || events[1].QualityScore != 8.0 {
		t.Errorf("add event = %+v, want track_id 7 and quality_score 8", events[1])
	}
	if events[2].Extra["added"] != "1" {
		t.Errorf("scan_finish added counter = %q, want \"1\"", events[2].Extra["added"])
	}
}
