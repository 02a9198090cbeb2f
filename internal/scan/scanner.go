// Package scan discovers candidate audio files in a directory tree.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/franz/music-catalog/internal/format"
	"github.com/franz/music-catalog/internal/util"
)

// Candidate is a filesystem entry that passed the extension and size
// filters and is eligible for analysis.
type Candidate struct {
	Path         string
	SizeBytes    int64
	ModifiedUnix int64
	Policy       format.Spec
}

// Scanner walks a library root and streams candidates. Each scan is
// independent; no cursor is persisted between passes.
type Scanner struct {
	followSymlinks bool
}

// Config holds scanner configuration
type Config struct {
	FollowSymlinks bool
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Scanner{followSymlinks: cfg.FollowSymlinks}
}

// Scan walks root and sends candidates to out. Entries that fail to stat
// (permission errors, broken symlinks) are reported through onError and do
// not stop the walk. With FollowSymlinks set, symlinked files are emitted
// under their link path and symlinked directories are descended into; a
// visited set keyed by resolved path keeps link cycles from looping. The
// returned error is non-nil only when root itself cannot be enumerated or
// the context is cancelled; both abort the scan. The caller owns out and
// closes it after Scan returns.
func (s *Scanner) Scan(ctx context.Context, root string, out chan<- Candidate, onError func(path string, err error)) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to enumerate library root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library root %s is not a directory", root)
	}

	if err := s.walk(ctx, root, out, onError, make(map[string]bool)); err != nil {
		return fmt.Errorf("walk error: %w", err)
	}
	return nil
}

func (s *Scanner) walk(ctx context.Context, root string, out chan<- Candidate, onError func(path string, err error), visited map[string]bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == root {
				return err
			}
			util.WarnLog("Error accessing path %s: %v", path, err)
			onError(path, err)
			return nil
		}

		if d.IsDir() {
			if !s.followSymlinks {
				return nil
			}
			// Track every directory by resolved path so a link back
			// into an already-walked subtree is pruned instead of
			// walked twice.
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				onError(path, fmt.Errorf("failed to resolve directory: %w", err))
				return filepath.SkipDir
			}
			if visited[resolved] {
				return filepath.SkipDir
			}
			visited[resolved] = true
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !s.followSymlinks {
				return nil
			}
			return s.followLink(ctx, path, out, onError, visited)
		}

		spec, ok := format.ClassifyPath(path)
		if !ok {
			// Not an audio file, silently skip.
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			onError(path, fmt.Errorf("failed to stat file: %w", err))
			return nil
		}

		return s.emit(ctx, path, fi, spec, out)
	})
}

// followLink resolves one symlink entry: a target directory is walked in
// place, a target file is emitted under the link path. Dangling links are
// per-file errors.
func (s *Scanner) followLink(ctx context.Context, path string, out chan<- Candidate, onError func(path string, err error), visited map[string]bool) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		onError(path, fmt.Errorf("failed to resolve symlink: %w", err))
		return nil
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		onError(path, fmt.Errorf("failed to stat symlink target: %w", err))
		return nil
	}

	if fi.IsDir() {
		if err := s.walk(ctx, resolved, out, onError, visited); err != nil {
			if ctx.Err() != nil {
				return err
			}
			onError(path, err)
		}
		return nil
	}

	spec, ok := format.ClassifyPath(path)
	if !ok {
		return nil
	}
	return s.emit(ctx, path, fi, spec, out)
}

func (s *Scanner) emit(ctx context.Context, path string, fi fs.FileInfo, spec format.Spec, out chan<- Candidate) error {
	if fi.Size() < spec.MinSizeBytes {
		util.DebugLog("Skipping %s: %d bytes below format floor", path, fi.Size())
		return nil
	}

	cand := Candidate{
		Path:         path,
		SizeBytes:    fi.Size(),
		ModifiedUnix: fi.ModTime().Unix(),
		Policy:       spec,
	}

	select {
	case out <- cand:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
