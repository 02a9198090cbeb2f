package library

import (
	"context"
	"errors"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/franz/music-catalog/internal/analysis"
	"github.com/franz/music-catalog/internal/audio"
	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/fingerprint"
	"github.com/franz/music-catalog/internal/meta"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/scan"
	"github.com/franz/music-catalog/internal/track"
	"github.com/franz/music-catalog/internal/util"
)

const defaultAnalysisSampleRate = 44100

// Config holds synchronizer configuration
type Config struct {
	// Workers bounds the per-file analysis pool. Zero means one worker
	// per CPU core.
	Workers int

	// CoverDir is where extracted embedded artwork is written.
	CoverDir string

	// FollowSymlinks is passed through to the scanner.
	FollowSymlinks bool

	// Analyze enables spectral quality analysis (requires ffmpeg).
	Analyze bool

	// Fingerprint enables acoustic fingerprinting (requires fpcalc).
	Fingerprint bool
}

// Synchronizer drives one full scan-and-reconcile pass: enumerate
// files, analyze them on a bounded worker pool, diff the results
// against the catalog and emit one event per outcome. The catalog is a
// single-writer resource; all writes go through the committing loop in
// run.
type Synchronizer struct {
	store     *catalog.Store
	scanner   *scan.Scanner
	extractor *meta.Extractor
	audit     *report.AuditLogger
	cfg       Config
}

// New creates a Synchronizer writing to store. audit may be nil.
func New(store *catalog.Store, audit *report.AuditLogger, cfg Config) (*Synchronizer, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	covers, err := meta.NewCoverStore(cfg.CoverDir)
	if err != nil {
		return nil, err
	}

	return &Synchronizer{
		store:     store,
		scanner:   scan.New(&scan.Config{FollowSymlinks: cfg.FollowSymlinks}),
		extractor: meta.New(covers),
		audit:     audit,
		cfg:       cfg,
	}, nil
}

// Scan starts a pass over root and returns its event stream. The
// channel is closed after the terminal event. Cancelling ctx stops
// dispatching new files, lets in-flight files finish, and skips the
// deletion pass: a cancelled scan never deletes rows, since "unseen"
// cannot be trusted for a partial pass.
func (s *Synchronizer) Scan(ctx context.Context, root string) <-chan Event {
	events := make(chan Event, 64)
	go s.run(ctx, root, events)
	return events
}

// result carries one worker outcome to the committing loop.
type result struct {
	path    string
	track   *track.Track
	skipped bool
	err     error
}

func (s *Synchronizer) run(ctx context.Context, root string, events chan<- Event) {
	defer close(events)

	events <- scanStarted()
	s.audit.LogScanStart(root)

	snapshot, err := s.store.AllStates()
	if err != nil {
		s.audit.LogError("", err)
		events <- fatalError(err)
		return
	}

	candidates := make(chan scan.Candidate, s.cfg.Workers*2)
	results := make(chan result, s.cfg.Workers*2)

	// Walker. Per-entry errors flow into results; only root-level
	// failures end up in scanErr.
	var scanErr error
	go func() {
		scanErr = s.scanner.Scan(ctx, root, candidates, func(path string, err error) {
			results <- result{path: path, err: err}
		})
		close(candidates)
	}()

	// Worker pool. Closing results is safe here: the walker has
	// finished once candidates is drained, so nobody else sends.
	// Candidates still buffered when ctx is cancelled are drained
	// without dispatch so a cancelled pass stops producing per-file
	// outcomes.
	go func() {
		p := pool.New().WithMaxGoroutines(s.cfg.Workers)
		for cand := range candidates {
			if ctx.Err() != nil {
				continue
			}
			cand := cand
			p.Go(func() {
				results <- s.process(ctx, cand, snapshot)
			})
		}
		p.Wait()
		close(results)
	}()

	// Committing loop: the only writer for this pass.
	seen := make(map[string]bool)
	var added, updated, removed, skipped, errs int
	for res := range results {
		if res.path != "" {
			seen[res.path] = true
		}

		switch {
		case res.err != nil:
			errs++
			util.WarnLog("Failed to process %s: %v", res.path, res.err)
			s.audit.LogError(res.path, res.err)
			events <- fileError(res.path, res.err)

		case res.skipped:
			skipped++
			s.audit.LogSkip(res.path)

		default:
			id, created, err := s.store.UpsertTrack(res.track)
			if err != nil {
				errs++
				util.WarnLog("Failed to commit %s: %v", res.path, err)
				s.audit.LogError(res.path, err)
				events <- fileError(res.path, err)
				continue
			}
			score := 0.0
			if a := res.track.Audio.Analysis; a != nil {
				score = a.QualityScore
			}
			if created {
				added++
				s.audit.LogAdd(res.path, id, score)
				events <- trackAdded(res.track)
			} else {
				updated++
				s.audit.LogUpdate(res.path, id, score)
				events <- trackUpdated(res.track)
			}
		}
	}

	if scanErr != nil {
		if errors.Is(scanErr, context.Canceled) || errors.Is(scanErr, context.DeadlineExceeded) {
			util.InfoLog("Scan cancelled, deletion pass skipped")
			s.audit.LogScanFinish(added, updated, removed, skipped, errs)
			events <- scanFinished()
			return
		}
		s.audit.LogError("", scanErr)
		events <- fatalError(scanErr)
		return
	}

	// Deletion pass: anything catalogued but not seen this pass is
	// gone from disk.
	removedRows, err := s.store.DeleteUnseen(seen)
	if err != nil {
		s.audit.LogError("", err)
		events <- fatalError(err)
		return
	}
	for _, r := range removedRows {
		removed++
		s.audit.LogRemove(r.Path, r.ID)
		events <- trackRemoved(r.ID)
	}

	s.audit.LogScanFinish(added, updated, removed, skipped, errs)
	events <- scanFinished()
}

// process runs the per-file pipeline: diff precheck, tag and property
// extraction, decode and spectral analysis, fingerprint. Failure at any
// stage yields an error result for this file only.
func (s *Synchronizer) process(ctx context.Context, cand scan.Candidate, snapshot map[string]catalog.TrackState) result {
	if st, ok := snapshot[cand.Path]; ok &&
		st.SizeBytes == cand.SizeBytes && st.ModifiedUnix == cand.ModifiedUnix {
		return result{path: cand.Path, skipped: true}
	}

	tags, audioInfo, err := s.extractor.Extract(ctx, cand.Path, cand.Policy)
	if err != nil {
		return result{path: cand.Path, err: err}
	}

	t := &track.Track{
		File:  track.NewFileInfo(cand.Path, cand.SizeBytes, cand.ModifiedUnix),
		Tags:  tags,
		Audio: audioInfo,
	}

	if s.cfg.Analyze {
		rate := defaultAnalysisSampleRate
		if audioInfo.SampleRateHz != nil && *audioInfo.SampleRateHz > 0 {
			rate = *audioInfo.SampleRateHz
		}
		samples, err := audio.DecodeMono(ctx, cand.Path, rate)
		if err != nil {
			return result{path: cand.Path, err: err}
		}
		a := analysis.Analyze(samples, rate)
		t.Audio.Analysis = &a
	}

	if s.cfg.Fingerprint {
		fp, err := fingerprint.Compute(ctx, cand.Path)
		if err != nil {
			return result{path: cand.Path, err: err}
		}
		t.Audio.Fingerprint = fp
	}

	return result{path: cand.Path, track: t}
}
