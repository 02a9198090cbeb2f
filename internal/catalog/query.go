package catalog

import (
	"database/sql"
	"fmt"
)

// Stats summarizes the catalog for reporting.
type Stats struct {
	Artists  int
	Songs    int
	Releases int
	Tracks   int
	Artworks int
}

// Stats returns row counts per entity table.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"artists", &st.Artists},
		{"songs", &st.Songs},
		{"releases", &st.Releases},
		{"release_tracks", &st.Tracks},
		{"artworks", &st.Artworks},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return st, nil
}

// ArtistSummary is one row of the artist listing.
type ArtistSummary struct {
	ID       int64
	Name     string
	Releases int
	Tracks   int
}

// ListArtists returns all artists ordered by name, with release and
// track counts across both main-artist and performer credits.
func (s *Store) ListArtists() ([]ArtistSummary, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.name,
			(SELECT COUNT(*) FROM release_main_artists rma WHERE rma.artist_id = a.id),
			(SELECT COUNT(DISTINCT rt.id)
			   FROM song_credits sc
			   JOIN release_tracks rt ON rt.song_id = sc.song_id
			  WHERE sc.artist_id = a.id)
		FROM artists a
		ORDER BY a.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var artists []ArtistSummary
	for rows.Next() {
		var a ArtistSummary
		if err := rows.Scan(&a.ID, &a.Name, &a.Releases, &a.Tracks); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// ReleaseSummary is one row of the release listing.
type ReleaseSummary struct {
	ID          int64
	Title       string
	Format      string
	ReleaseDate *string
	MainArtists []string
	Tracks      int
}

// ListReleases returns all releases ordered by title, each with its
// main artists and track count.
func (s *Store) ListReleases() ([]ReleaseSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.title, r.format, r.release_date,
			(SELECT COUNT(*) FROM release_tracks rt WHERE rt.release_id = r.id)
		FROM releases r
		ORDER BY r.title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer rows.Close()

	var releases []ReleaseSummary
	for rows.Next() {
		var r ReleaseSummary
		if err := rows.Scan(&r.ID, &r.Title, &r.Format, &r.ReleaseDate, &r.Tracks); err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range releases {
		artists, err := s.releaseMainArtists(releases[i].ID)
		if err != nil {
			return nil, err
		}
		releases[i].MainArtists = artists
	}
	return releases, nil
}

func (s *Store) releaseMainArtists(releaseID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT a.name FROM artists a
		JOIN release_main_artists rma ON rma.artist_id = a.id
		WHERE rma.release_id = ?
		ORDER BY a.name
	`, releaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TrackRow is one physical file as listed under a release.
type TrackRow struct {
	ID                int64
	Title             string
	TrackNumber       *int
	DiscNumber        *int
	Path              string
	DurationSeconds   float64
	BitrateKbps       *int
	QualityScore      *float64
	QualityAssessment *string
	Fingerprinted     bool
}

// TracksForRelease returns the tracks of a release in disc and track
// order, with song titles joined in.
func (s *Store) TracksForRelease(releaseID int64) ([]TrackRow, error) {
	rows, err := s.db.Query(`
		SELECT rt.id, s.title, rt.track_number, rt.disc_number, rt.path,
		       rt.duration_seconds, rt.bitrate_kbps,
		       rt.quality_score, rt.quality_assessment,
		       rt.fingerprint IS NOT NULL
		FROM release_tracks rt
		JOIN songs s ON s.id = rt.song_id
		WHERE rt.release_id = ?
		ORDER BY rt.disc_number, rt.track_number, rt.path
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list release tracks: %w", err)
	}
	defer rows.Close()

	var tracks []TrackRow
	for rows.Next() {
		var t TrackRow
		var trackNo, discNo, bitrate sql.NullInt64
		var score sql.NullFloat64
		var assessment sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &trackNo, &discNo, &t.Path,
			&t.DurationSeconds, &bitrate, &score, &assessment, &t.Fingerprinted); err != nil {
			return nil, err
		}
		if trackNo.Valid {
			n := int(trackNo.Int64)
			t.TrackNumber = &n
		}
		if discNo.Valid {
			n := int(discNo.Int64)
			t.DiscNumber = &n
		}
		if bitrate.Valid {
			n := int(bitrate.Int64)
			t.BitrateKbps = &n
		}
		if score.Valid {
			t.QualityScore = &score.Float64
		}
		if assessment.Valid {
			t.QualityAssessment = &assessment.String
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
