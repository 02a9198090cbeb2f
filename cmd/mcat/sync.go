package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-catalog/internal/audio"
	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/fingerprint"
	"github.com/franz/music-catalog/internal/library"
	"github.com/franz/music-catalog/internal/meta"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/util"
)

var syncCmd = &cobra.Command{
	Use:   "sync [root]",
	Short: "Scan the library and reconcile the catalog",
	Long: `Scan the library root and bring the catalog in sync with the files on
disk.

New files are analyzed and added, changed files are re-analyzed and
updated in place, and files that disappeared from disk are removed from
the catalog along with any artists, songs and releases left without a
single track.

Interrupting a sync (Ctrl-C) is safe: in-flight files finish, already
committed files stay committed, and nothing is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().IntP("workers", "w", 0, "analysis workers (0 = number of CPU cores)")
	syncCmd.Flags().Bool("no-analyze", false, "skip spectral quality analysis")
	syncCmd.Flags().Bool("no-fingerprint", false, "skip acoustic fingerprinting")
	syncCmd.Flags().Bool("json", false, "write the event stream as JSONL to stdout")
	syncCmd.Flags().String("audit-dir", "artifacts", "directory for the JSONL audit trail ('' disables)")
}

func runSync(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	root := viper.GetString("library")
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("library root is required (pass it as an argument, use --library or set it in config)")
	}

	workers, _ := cmd.Flags().GetInt("workers")
	noAnalyze, _ := cmd.Flags().GetBool("no-analyze")
	noFingerprint, _ := cmd.Flags().GetBool("no-fingerprint")
	jsonOut, _ := cmd.Flags().GetBool("json")
	auditDir, _ := cmd.Flags().GetString("audit-dir")

	if !noAnalyze && !audio.CheckFFmpegAvailable() {
		util.WarnLog("ffmpeg not found in PATH - quality analysis disabled")
		util.WarnLog("Install ffmpeg to enable it: https://ffmpeg.org/")
		noAnalyze = true
	}
	if !noFingerprint && !fingerprint.CheckFpcalcAvailable() {
		util.WarnLog("fpcalc not found in PATH - fingerprinting disabled")
		noFingerprint = true
	}
	if !meta.CheckFFprobeAvailable() {
		util.WarnLog("ffprobe not found in PATH - files cannot be probed and will error")
	}

	dbPath := viper.GetString("db")
	util.InfoLog("Opening catalog: %s", dbPath)

	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	var audit *report.AuditLogger
	if auditDir != "" {
		audit, err = report.NewAuditLogger(auditDir)
		if err != nil {
			util.WarnLog("Failed to create audit log: %v", err)
		} else {
			defer audit.Close()
			util.InfoLog("Audit log: %s", audit.Path())
		}
	}

	sync, err := library.New(store, audit, library.Config{
		Workers:     workers,
		CoverDir:    viper.GetString("covers"),
		Analyze:     !noAnalyze,
		Fingerprint: !noFingerprint,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	util.InfoLog("Syncing library: %s", root)
	start := time.Now()

	summary, err := consumeEvents(ctx, sync.Scan(ctx, root), jsonOut)
	if err != nil {
		return err
	}

	util.SuccessLog("Sync complete in %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Added:   %d", summary.added)
	util.InfoLog("  Updated: %d", summary.updated)
	util.InfoLog("  Removed: %d", summary.removed)
	if summary.errors > 0 {
		util.WarnLog("  Errors:  %d", summary.errors)
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	util.InfoLog("")
	util.InfoLog("Catalog: %s artists, %s songs, %s releases, %s tracks",
		humanize.Comma(int64(stats.Artists)),
		humanize.Comma(int64(stats.Songs)),
		humanize.Comma(int64(stats.Releases)),
		humanize.Comma(int64(stats.Tracks)))

	return nil
}

type syncSummary struct {
	added, updated, removed, errors int
}

// consumeEvents drains one scan's event stream, keeping a spinner alive
// on stderr and optionally mirroring events as JSONL on stdout. A fatal
// error event becomes the returned error.
func consumeEvents(ctx context.Context, events <-chan library.Event, jsonOut bool) (syncSummary, error) {
	var summary syncSummary
	var fatal error

	var bar *progressbar.ProgressBar
	if !util.IsQuiet() && !jsonOut && util.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("syncing"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
		)
	}

	enc := json.NewEncoder(os.Stdout)
	for event := range events {
		if jsonOut {
			if err := enc.Encode(event); err != nil {
				return summary, err
			}
		}

		switch event.Kind {
		case library.EventTrackAdded:
			summary.added++
		case library.EventTrackUpdated:
			summary.updated++
		case library.EventTrackRemoved:
			summary.removed++
		case library.EventError:
			if event.Terminal() {
				fatal = fmt.Errorf("sync failed: %s", event.Message)
			} else {
				summary.errors++
			}
		}

		if bar != nil {
			switch event.Kind {
			case library.EventTrackAdded, library.EventTrackUpdated, library.EventTrackRemoved:
				bar.Add(1)
			}
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	return summary, fatal
}
