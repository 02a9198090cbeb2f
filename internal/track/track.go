// Package track defines the transient per-file model produced during a scan.
// A Track is synthesized fresh on every pass and projected into catalog rows;
// it is never persisted as-is.
package track

import (
	"path/filepath"
	"time"

	"github.com/franz/music-catalog/internal/analysis"
)

// Track composes everything known about one physical audio file.
type Track struct {
	File  FileInfo  `json:"file"`
	Tags  TagInfo   `json:"tags"`
	Audio AudioInfo `json:"audio"`
}

// FileInfo identifies the file on disk. Path is the identity key.
type FileInfo struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	ModifiedUnix int64  `json:"modified_timestamp"`
}

// NewFileInfo builds a FileInfo from stat results.
func NewFileInfo(path string, sizeBytes, modifiedUnix int64) FileInfo {
	return FileInfo{
		Path:         path,
		Filename:     filepath.Base(path),
		SizeBytes:    sizeBytes,
		ModifiedUnix: modifiedUnix,
	}
}

// TagInfo holds the parsed tag fields. Absent tags are nil, never a
// sentinel string.
type TagInfo struct {
	Title       *string `json:"title,omitempty"`
	Artist      *string `json:"artist,omitempty"`
	Album       *string `json:"album,omitempty"`
	AlbumArtist *string `json:"album_artist,omitempty"`

	TrackNumber *int `json:"track_number,omitempty"`
	TotalTracks *int `json:"total_tracks,omitempty"`
	DiscNumber  *int `json:"disc_number,omitempty"`
	TotalDiscs  *int `json:"total_discs,omitempty"`

	Genre       *string `json:"genre,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Composer    *string `json:"composer,omitempty"`
	Producer    *string `json:"producer,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
	ReleaseType *string `json:"release_type,omitempty"`
	Comments    *string `json:"comments,omitempty"`

	Artwork []Artwork `json:"artwork,omitempty"`
	Rating  Rating    `json:"rating"`
}

// Artwork is an embedded picture extracted to the cover store,
// deduplicated by content hash.
type Artwork struct {
	Path        string  `json:"path"`
	MimeType    string  `json:"mime_type"`
	Description *string `json:"description,omitempty"`
	Hash        string  `json:"hash"`
}

// AudioInfo holds the probed audio properties plus analysis results.
type AudioInfo struct {
	Duration     time.Duration      `json:"duration"`
	BitrateKbps  *int               `json:"bitrate_kbps,omitempty"`
	SampleRateHz *int               `json:"sample_rate_hz,omitempty"`
	Channels     *int               `json:"channels,omitempty"`
	TagType      *string            `json:"tag_type,omitempty"`
	Analysis     *analysis.Analysis `json:"analysis,omitempty"`
	Fingerprint  *string            `json:"fingerprint,omitempty"`
}
