package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"audio write", fsnotify.Event{Name: "/m/a.mp3", Op: fsnotify.Write}, true},
		{"audio create", fsnotify.Event{Name: "/m/a.flac", Op: fsnotify.Create}, true},
		{"audio remove", fsnotify.Event{Name: "/m/a.ogg", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/m/a.mp3", Op: fsnotify.Chmod}, false},
		{"text file", fsnotify.Event{Name: "/m/notes.txt", Op: fsnotify.Write}, false},
		{"directory", fsnotify.Event{Name: "/m/newalbum", Op: fsnotify.Create}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestWatchTriggersOnChange(t *testing.T) {
	dir := t.TempDir()

	w, err := New(100 * time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggered := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, dir, func() {
			select {
			case triggered <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher a moment to install before writing.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("trigger was not invoked after a change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestWatchMissingRoot(t *testing.T) {
	w, err := New(0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), func() {})
	if err == nil {
		t.Error("expected error for missing root")
	}
}
