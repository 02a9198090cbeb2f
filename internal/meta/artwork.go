package meta

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/franz/music-catalog/internal/track"
)

// CoverStore writes embedded artwork to a directory, one file per unique
// image. Identical images across files and releases collapse to a single
// stored copy keyed by content hash.
type CoverStore struct {
	dir string
}

// NewCoverStore creates the cover directory if needed.
func NewCoverStore(dir string) (*CoverStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover directory: %w", err)
	}
	return &CoverStore{dir: dir}, nil
}

// Add stores image bytes under their SHA-256 hash and returns the artwork
// record. Re-adding identical bytes is a cheap no-op returning the same
// path and hash.
func (c *CoverStore) Add(data []byte, mimeType string, description *string) (track.Artwork, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	dest := filepath.Join(c.dir, hash+extForMime(mimeType))
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return track.Artwork{}, fmt.Errorf("failed to write cover: %w", err)
		}
	}

	return track.Artwork{
		Path:        dest,
		MimeType:    mimeType,
		Description: description,
		Hash:        hash,
	}, nil
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
