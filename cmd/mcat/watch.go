package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-catalog/internal/audio"
	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/fingerprint"
	"github.com/franz/music-catalog/internal/library"
	"github.com/franz/music-catalog/internal/util"
	"github.com/franz/music-catalog/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Watch the library and sync on changes",
	Long: `Run an initial sync, then keep watching the library root for
filesystem changes and re-sync after each debounced burst of activity.

Runs until interrupted (Ctrl-C).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntP("workers", "w", 0, "analysis workers (0 = number of CPU cores)")
	watchCmd.Flags().Duration("debounce", 2*time.Second, "settle time before a change triggers a sync")
	watchCmd.Flags().Bool("no-analyze", false, "skip spectral quality analysis")
	watchCmd.Flags().Bool("no-fingerprint", false, "skip acoustic fingerprinting")
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	debounce, _ := cmd.Flags().GetDuration("debounce")
	noAnalyze, _ := cmd.Flags().GetBool("no-analyze")
	noFingerprint, _ := cmd.Flags().GetBool("no-fingerprint")

	if !noAnalyze && !audio.CheckFFmpegAvailable() {
		util.WarnLog("ffmpeg not found in PATH - quality analysis disabled")
		noAnalyze = true
	}
	if !noFingerprint && !fingerprint.CheckFpcalcAvailable() {
		util.WarnLog("fpcalc not found in PATH - fingerprinting disabled")
		noFingerprint = true
	}

	store, err := catalog.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	sync, err := library.New(store, nil, library.Config{
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

	runPass := func() {
		summary, err := consumeEvents(ctx, sync.Scan(ctx, root), false)
		if err != nil {
			util.ErrorLog("Sync failed: %v", err)
			return
		}
		if summary.added+summary.updated+summary.removed > 0 {
			util.SuccessLog("Synced: +%d ~%d -%d", summary.added, summary.updated, summary.removed)
		}
	}

	util.InfoLog("Initial sync of %s", root)
	runPass()

	watcher, err := watch.New(debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	util.InfoLog("Watching %s (Ctrl-C to stop)", root)
	return watcher.Watch(ctx, root, func() {
		util.InfoLog("Change detected, re-syncing")
		runPass()
	})
}
