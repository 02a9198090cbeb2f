package library

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/track"
)

func newTestSync(t *testing.T) (*Synchronizer, *catalog.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sync, err := New(store, nil, Config{
		Workers:  2,
		CoverDir: filepath.Join(dir, "covers"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sync, store
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatalf("event stream did not terminate; got %d events", len(out))
		}
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func seedTrack(t *testing.T, store *catalog.Store, path string, size, mtime int64) int64 {
	t.Helper()
	title := "Seed Song"
	artist := "Seed Artist"
	tr := &track.Track{
		File: track.NewFileInfo(path, size, mtime),
		Tags: track.TagInfo{Title: &title, Artist: &artist},
		Audio: track.AudioInfo{
			Duration: 3 * time.Minute,
		},
	}
	id, _, err := store.UpsertTrack(tr)
	if err != nil {
		t.Fatalf("seed UpsertTrack() error = %v", err)
	}
	return id
}

func TestScanEmptyDirectory(t *testing.T) {
	sync, _ := newTestSync(t)

	events := collect(t, sync.Scan(context.Background(), t.TempDir()))

	got := kinds(events)
	if len(got) != 2 || got[0] != EventScanStarted || got[1] != EventScanFinished {
		t.Errorf("events = %v, want exactly [scanStarted scanFinished]", got)
	}
}

func TestScanMissingRootIsFatal(t *testing.T) {
	sync, _ := newTestSync(t)

	events := collect(t, sync.Scan(context.Background(), filepath.Join(t.TempDir(), "nope")))

	got := kinds(events)
	if len(got) != 2 || got[0] != EventScanStarted || got[1] != EventError {
		t.Fatalf("events = %v, want [scanStarted error]", got)
	}
	if !events[1].Terminal() {
		t.Error("fatal error event must be terminal")
	}
	for _, e := range events {
		if e.Kind == EventScanFinished {
			t.Error("fatal scan must not emit scanFinished")
		}
	}
}

func TestScanSkipsUnchangedFiles(t *testing.T) {
	sync, store := newTestSync(t)
	dir := t.TempDir()

	// A file already catalogued with matching size and mtime is skipped
	// before any extraction happens, so no external tools are needed.
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, 600*1024), 0644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	seedTrack(t, store, path, fi.Size(), fi.ModTime().Unix())

	events := collect(t, sync.Scan(context.Background(), dir))

	got := kinds(events)
	if len(got) != 2 || got[0] != EventScanStarted || got[1] != EventScanFinished {
		t.Errorf("events = %v, want exactly [scanStarted scanFinished] for unchanged file", got)
	}

	state, err := store.TrackState(path)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Error("unchanged file must stay catalogued")
	}
}

func TestScanRemovesMissingFiles(t *testing.T) {
	sync, store := newTestSync(t)

	id := seedTrack(t, store, "/gone/away.mp3", 4096, 1700000000)

	events := collect(t, sync.Scan(context.Background(), t.TempDir()))

	got := kinds(events)
	want := []EventKind{EventScanStarted, EventTrackRemoved, EventScanFinished}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if events[1].TrackID != id {
		t.Errorf("trackRemoved id = %d, want %d", events[1].TrackID, id)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Tracks != 0 || stats.Songs != 0 || stats.Artists != 0 {
		t.Errorf("orphans survived removal: %+v", stats)
	}
}

func TestCancelledScanSkipsDeletionPass(t *testing.T) {
	sync, store := newTestSync(t)

	seedTrack(t, store, "/gone/away.mp3", 4096, 1700000000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := collect(t, sync.Scan(ctx, t.TempDir()))

	for _, e := range events {
		if e.Kind == EventTrackRemoved {
			t.Error("cancelled scan must not remove rows")
		}
	}
	if last := events[len(events)-1]; last.Kind != EventScanFinished {
		t.Errorf("terminal event = %v, want scanFinished", last.Kind)
	}

	state, err := store.TrackState("/gone/away.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Error("cancelled scan deleted a row for an unseen path")
	}
}

func TestCancelledScanStopsDispatchingQueuedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sync, err := New(store, nil, Config{
		Workers:  1,
		CoverDir: filepath.Join(dir, "covers"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Enough unparseable files to fill every channel in the pipeline
	// while the event stream goes unread.
	lib := t.TempDir()
	junk := bytes.Repeat([]byte{0xff}, 513*1024)
	for i := 0; i < 90; i++ {
		if err := os.WriteFile(filepath.Join(lib, fmt.Sprintf("%03d.mp3", i)), junk, 0644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := sync.Scan(ctx, lib)

	// Let the pipeline stall on the full event buffer, then cancel with
	// candidates still queued behind the single worker.
	time.Sleep(1 * time.Second)
	cancel()

	collected := collect(t, events)

	var errs int
	for _, e := range collected {
		if e.Kind == EventError && e.Path != "" {
			errs++
		}
	}

	// Everything dispatched before the cancel fits in the event buffer
	// (64, one slot taken by scanStarted), the blocked commit send, the
	// results buffer (2), the in-flight worker and the pool entry.
	// Candidates still queued when the context dies must be drained
	// without dispatch, so they add no error events on top of that.
	const maxDispatched = 63 + 1 + 2 + 1 + 1
	if errs > maxDispatched {
		t.Errorf("%d per-file errors after cancellation, want at most %d: queued files were still dispatched", errs, maxDispatched)
	}
	if last := collected[len(collected)-1]; last.Kind != EventScanFinished {
		t.Errorf("terminal event = %v, want scanFinished", last.Kind)
	}
}

func TestScanIsIdempotentOverUnchangedTree(t *testing.T) {
	sync, store := newTestSync(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, 600*1024), 0644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	seedTrack(t, store, path, fi.Size(), fi.ModTime().Unix())

	for pass := 0; pass < 2; pass++ {
		events := collect(t, sync.Scan(context.Background(), dir))
		for _, e := range events {
			switch e.Kind {
			case EventTrackAdded, EventTrackUpdated, EventTrackRemoved:
				t.Errorf("pass %d: unexpected %v event over unchanged tree", pass, e.Kind)
			}
		}
	}
}
