// Package format holds the per-extension acceptance policy for library scans.
package format

import (
	"path/filepath"
	"strings"
	"time"
)

// Spec holds the acceptance thresholds and decode hint for one audio format.
type Spec struct {
	// MinSizeBytes is the minimum file size for a candidate. Files below
	// it are skipped by the scanner before any decode work.
	MinSizeBytes int64

	// MinDuration is the minimum track duration. Checked after tag
	// extraction, since duration requires parsing the container.
	MinDuration time.Duration

	// DecoderHint names the codec family, passed to the decoder and
	// stored for diagnostics.
	DecoderHint string
}

// commonMinDuration applies to every supported format.
const commonMinDuration = 30 * time.Second

const (
	kib = 1024
	mib = 1024 * kib
)

// policies maps a lowercase extension (without dot) to its Spec.
// Lossy formats use a 500 KiB floor; lossless containers carry far more
// bytes per second and get proportionally higher floors.
var policies = map[string]Spec{
	"mp3":  {MinSizeBytes: 500 * kib, MinDuration: commonMinDuration, DecoderHint: "mp3"},
	"aac":  {MinSizeBytes: 500 * kib, MinDuration: commonMinDuration, DecoderHint: "aac"},
	"mp4":  {MinSizeBytes: 1 * mib, MinDuration: commonMinDuration, DecoderHint: "aac"},
	"m4a":  {MinSizeBytes: 1 * mib, MinDuration: commonMinDuration, DecoderHint: "aac"},
	"ogg":  {MinSizeBytes: 500 * kib, MinDuration: commonMinDuration, DecoderHint: "vorbis"},
	"opus": {MinSizeBytes: 500 * kib, MinDuration: commonMinDuration, DecoderHint: "opus"},
	"wav":  {MinSizeBytes: 5 * mib, MinDuration: commonMinDuration, DecoderHint: "pcm"},
	"flac": {MinSizeBytes: 2 * mib, MinDuration: commonMinDuration, DecoderHint: "flac"},
}

// Classify returns the policy for a file extension. The extension may be
// given with or without the leading dot, in any case. The second return is
// false for unsupported extensions: such files are not candidates and the
// scanner skips them silently.
func Classify(ext string) (Spec, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	spec, ok := policies[ext]
	return spec, ok
}

// ClassifyPath is a convenience wrapper applying Classify to a file path.
func ClassifyPath(path string) (Spec, bool) {
	return Classify(filepath.Ext(path))
}

// Extensions returns the supported extensions (without dot), for display.
func Extensions() []string {
	exts := make([]string, 0, len(policies))
	for ext := range policies {
		exts = append(exts, ext)
	}
	return exts
}
