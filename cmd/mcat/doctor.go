package main

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure mcat can operate correctly.

This command checks:
- Required tools (ffprobe)
- Optional tools (ffmpeg for quality analysis, fpcalc for fingerprinting)
- SQLite version compatibility
- Catalog database accessibility and integrity
- Library directory readability

Use this command to troubleshoot issues before running a sync.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== MCAT Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{
		checkTool("ffprobe", "-version", true),
		checkTool("ffmpeg", "-version", false),
		checkTool("fpcalc", "-version", false),
		checkSQLite(),
		checkCatalog(viper.GetString("db")),
	}

	if root := viper.GetString("library"); root != "" {
		results = append(results, checkLibraryRoot(root))
	}

	hasErrors := false
	for _, r := range results {
		switch {
		case r.error:
			hasErrors = true
			util.ErrorLog("[FAIL] %s: %s", r.name, r.message)
		case r.warning:
			util.WarnLog("[WARN] %s: %s", r.name, r.message)
		default:
			util.SuccessLog("[ OK ] %s: %s", r.name, r.message)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some checks failed. Fix the issues above before syncing.")
		os.Exit(1)
	}
	util.SuccessLog("All checks passed.")
	return nil
}

// checkTool probes for an external binary and reports its first version
// line. Missing required tools are errors, missing optional ones are
// warnings.
func checkTool(name, versionFlag string, required bool) checkResult {
	path, err := exec.LookPath(name)
	if err != nil {
		msg := "not found in PATH"
		switch name {
		case "ffprobe", "ffmpeg":
			msg += " (install ffmpeg: https://ffmpeg.org/)"
		case "fpcalc":
			msg += " (install chromaprint for fingerprinting)"
		}
		return checkResult{name: name, message: msg, error: required, warning: !required}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, versionFlag).Output()
	if err != nil {
		return checkResult{name: name, message: "found but failed to run: " + err.Error(), warning: true}
	}

	version := strings.SplitN(string(out), "\n", 2)[0]
	if len(version) > 60 {
		version = version[:60]
	}
	return checkResult{name: name, message: version}
}

func checkSQLite() checkResult {
	version := catalog.SQLiteVersion()
	if version == "" {
		return checkResult{name: "sqlite", message: "failed to determine version", error: true}
	}
	return checkResult{name: "sqlite", message: "version " + version}
}

func checkCatalog(path string) checkResult {
	store, err := catalog.Open(path)
	if err != nil {
		return checkResult{name: "catalog", message: err.Error(), error: true}
	}
	defer store.Close()

	if err := store.CheckIntegrity(); err != nil {
		return checkResult{name: "catalog", message: err.Error(), error: true}
	}

	stats, err := store.Stats()
	if err != nil {
		return checkResult{name: "catalog", message: err.Error(), error: true}
	}
	return checkResult{
		name:    "catalog",
		message: path + " (" + humanCounts(stats) + ")",
	}
}

func humanCounts(stats catalog.Stats) string {
	if stats.Tracks == 0 {
		return "empty"
	}
	return strings.Join([]string{
		plural(stats.Artists, "artist"),
		plural(stats.Tracks, "track"),
	}, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func checkLibraryRoot(root string) checkResult {
	info, err := os.Stat(root)
	if err != nil {
		return checkResult{name: "library", message: root + ": " + err.Error(), error: true}
	}
	if !info.IsDir() {
		return checkResult{name: "library", message: root + " is not a directory", error: true}
	}
	if _, err := os.ReadDir(root); err != nil {
		return checkResult{name: "library", message: root + " is not readable: " + err.Error(), error: true}
	}
	return checkResult{name: "library", message: root}
}
