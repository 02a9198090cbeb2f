package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the catalog contents",
	Long: `Display the catalog in a human-readable format.

By default lists all artists with their release and track counts.
Use --releases for the release listing, or --tracks <release-id> for
the tracks of one release including quality assessments.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("releases", false, "list releases instead of artists")
	showCmd.Flags().Int64("tracks", 0, "list tracks of the given release id")
}

func runShow(cmd *cobra.Command, args []string) error {
	util.SetQuiet(viper.GetBool("quiet"))

	store, err := catalog.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	if releaseID, _ := cmd.Flags().GetInt64("tracks"); releaseID != 0 {
		return showTracks(store, releaseID)
	}
	if releases, _ := cmd.Flags().GetBool("releases"); releases {
		return showReleases(store)
	}
	return showArtists(store)
}

func showArtists(store *catalog.Store) error {
	artists, err := store.ListArtists()
	if err != nil {
		return err
	}
	if len(artists) == 0 {
		fmt.Println("Catalog is empty. Run 'mcat sync' first.")
		return nil
	}

	fmt.Printf("%-6s %-40s %9s %7s\n", "ID", "ARTIST", "RELEASES", "TRACKS")
	fmt.Println(strings.Repeat("-", 66))
	for _, a := range artists {
		fmt.Printf("%-6d %-40s %9d %7d\n", a.ID, truncate(a.Name, 40), a.Releases, a.Tracks)
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\n%s artists, %s songs, %s releases, %s tracks, %s artworks\n",
		humanize.Comma(int64(stats.Artists)),
		humanize.Comma(int64(stats.Songs)),
		humanize.Comma(int64(stats.Releases)),
		humanize.Comma(int64(stats.Tracks)),
		humanize.Comma(int64(stats.Artworks)))
	return nil
}

func showReleases(store *catalog.Store) error {
	releases, err := store.ListReleases()
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		fmt.Println("Catalog is empty. Run 'mcat sync' first.")
		return nil
	}

	fmt.Printf("%-6s %-36s %-28s %-6s %6s\n", "ID", "RELEASE", "MAIN ARTISTS", "DATE", "TRACKS")
	fmt.Println(strings.Repeat("-", 86))
	for _, r := range releases {
		date := ""
		if r.ReleaseDate != nil {
			date = *r.ReleaseDate
		}
		fmt.Printf("%-6d %-36s %-28s %-6s %6d\n",
			r.ID, truncate(r.Title, 36),
			truncate(strings.Join(r.MainArtists, "; "), 28),
			date, r.Tracks)
	}
	return nil
}

func showTracks(store *catalog.Store, releaseID int64) error {
	tracks, err := store.TracksForRelease(releaseID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Printf("No tracks for release %d.\n", releaseID)
		return nil
	}

	fmt.Printf("%-5s %-36s %9s %8s %-14s %s\n", "NO", "TITLE", "DURATION", "BITRATE", "QUALITY", "PATH")
	fmt.Println(strings.Repeat("-", 100))
	for _, t := range tracks {
		no := ""
		if t.TrackNumber != nil {
			no = fmt.Sprintf("%d", *t.TrackNumber)
			if t.DiscNumber != nil {
				no = fmt.Sprintf("%d-%s", *t.DiscNumber, no)
			}
		}
		bitrate := ""
		if t.BitrateKbps != nil {
			bitrate = fmt.Sprintf("%dk", *t.BitrateKbps)
		}
		quality := ""
		if t.QualityScore != nil {
			quality = fmt.Sprintf("%.1f", *t.QualityScore)
			if t.QualityAssessment != nil {
				quality += " " + *t.QualityAssessment
			}
		}
		duration := time.Duration(t.DurationSeconds * float64(time.Second)).Round(time.Second)
		fmt.Printf("%-5s %-36s %9s %8s %-14s %s\n",
			no, truncate(t.Title, 36), duration, bitrate, truncate(quality, 14), t.Path)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
