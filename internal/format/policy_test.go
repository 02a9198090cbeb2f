package format

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name        string
		ext         string
		wantOK      bool
		wantMinSize int64
	}{
		{name: "mp3 lowercase", ext: "mp3", wantOK: true, wantMinSize: 500 * 1024},
		{name: "mp3 with dot", ext: ".mp3", wantOK: true, wantMinSize: 500 * 1024},
		{name: "mp3 uppercase", ext: "MP3", wantOK: true, wantMinSize: 500 * 1024},
		{name: "flac", ext: "flac", wantOK: true, wantMinSize: 2 * 1024 * 1024},
		{name: "wav", ext: "wav", wantOK: true, wantMinSize: 5 * 1024 * 1024},
		{name: "m4a", ext: "m4a", wantOK: true, wantMinSize: 1024 * 1024},
		{name: "unknown extension", ext: "txt", wantOK: false},
		{name: "empty extension", ext: "", wantOK: false},
		{name: "image", ext: ".jpg", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, ok := Classify(tc.ext)
			if ok != tc.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tc.ext, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if spec.MinSizeBytes != tc.wantMinSize {
				t.Errorf("Classify(%q) MinSizeBytes = %d, want %d", tc.ext, spec.MinSizeBytes, tc.wantMinSize)
			}
			if spec.MinDuration != 30*time.Second {
				t.Errorf("Classify(%q) MinDuration = %v, want 30s", tc.ext, spec.MinDuration)
			}
			if spec.DecoderHint == "" {
				t.Errorf("Classify(%q) has empty DecoderHint", tc.ext)
			}
		})
	}
}

func TestClassifyPath(t *testing.T) {
	if _, ok := ClassifyPath("/music/album/01 - song.flac"); !ok {
		t.Error("expected .flac path to classify")
	}
	if _, ok := ClassifyPath("/music/cover.png"); ok {
		t.Error("expected .png path to be rejected")
	}
	if _, ok := ClassifyPath("/music/no-extension"); ok {
		t.Error("expected extensionless path to be rejected")
	}
}

func TestExtensionsComplete(t *testing.T) {
	exts := Extensions()
	if len(exts) != 8 {
		t.Fatalf("expected 8 supported extensions, got %d: %v", len(exts), exts)
	}
	for _, ext := range exts {
		if _, ok := Classify(ext); !ok {
			t.Errorf("Extensions() returned %q but Classify rejects it", ext)
		}
	}
}
