package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/franz/music-catalog/internal/track"
)

// ErrNoTitle marks a file whose tags carry no usable song title. The
// catalog refuses such files; they surface as per-file errors and are
// retried on the next pass.
var ErrNoTitle = errors.New("track has no title")

// TrackState is the slice of a release_tracks row the differ needs to
// decide between skip, update and insert.
type TrackState struct {
	ID           int64
	SizeBytes    int64
	ModifiedUnix int64
}

// RemovedTrack identifies a row deleted by the reconciliation pass.
type RemovedTrack struct {
	ID   int64
	Path string
}

// TrackState returns the stored state for a path, or nil when the path
// is not in the catalog.
func (s *Store) TrackState(path string) (*TrackState, error) {
	var st TrackState
	err := s.db.QueryRow(`
		SELECT id, size_bytes, modified_timestamp
		FROM release_tracks WHERE path = ?
	`, path).Scan(&st.ID, &st.SizeBytes, &st.ModifiedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up track state: %w", err)
	}
	return &st, nil
}

// AllPaths returns every catalogued file path mapped to its row id.
func (s *Store) AllPaths() (map[string]int64, error) {
	rows, err := s.db.Query("SELECT path, id FROM release_tracks")
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]int64)
	for rows.Next() {
		var path string
		var id int64
		if err := rows.Scan(&path, &id); err != nil {
			return nil, err
		}
		paths[path] = id
	}
	return paths, rows.Err()
}

// AllStates returns the stored diff state for every catalogued path in
// one query. The synchronizer snapshots this at the start of a pass so
// workers can skip unchanged files without touching the database.
func (s *Store) AllStates() (map[string]TrackState, error) {
	rows, err := s.db.Query("SELECT path, id, size_bytes, modified_timestamp FROM release_tracks")
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot track states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]TrackState)
	for rows.Next() {
		var path string
		var st TrackState
		if err := rows.Scan(&path, &st.ID, &st.SizeBytes, &st.ModifiedUnix); err != nil {
			return nil, err
		}
		states[path] = st
	}
	return states, rows.Err()
}

// UpsertTrack projects one scanned track into catalog rows inside a
// single transaction: artists, song, release and association rows are
// found or created, then the release_tracks row is written. An existing
// row for the same path keeps its id. Returns the row id and whether
// the row was newly created.
func (s *Store) UpsertTrack(t *track.Track) (id int64, created bool, err error) {
	err = s.Transaction(func(tx *sql.Tx) error {
		title := strVal(t.Tags.Title)
		if title == "" {
			return ErrNoTitle
		}

		var performers, featured, composers, producers []string
		if t.Tags.Artist != nil {
			performers, featured = splitPerformers(*t.Tags.Artist)
		}
		if t.Tags.Composer != nil {
			composers = splitArtists(*t.Tags.Composer)
		}
		if t.Tags.Producer != nil {
			producers = splitArtists(*t.Tags.Producer)
		}
		var mainArtists []string
		if t.Tags.AlbumArtist != nil {
			mainArtists = splitArtists(*t.Tags.AlbumArtist)
		}

		artistIDs, err := resolveArtists(tx, performers, featured, composers, producers, mainArtists)
		if err != nil {
			return err
		}

		songID, err := resolveSong(tx, title, artistIDs, performers, featured, composers, producers)
		if err != nil {
			return err
		}

		releaseID, err := resolveRelease(tx, t, artistIDs, mainArtists)
		if err != nil {
			return err
		}

		id, created, err = upsertReleaseTrack(tx, t, songID, releaseID)
		if err != nil {
			return err
		}

		return insertArtworks(tx, releaseID, t.Tags.Artwork)
	})
	return id, created, err
}

// resolveArtists finds or creates one artists row per distinct name
// across all credit lists. Matching is exact and case sensitive.
func resolveArtists(tx *sql.Tx, lists ...[]string) (map[string]int64, error) {
	var names []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, name := range list {
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		var id int64
		err := tx.QueryRow("SELECT id FROM artists WHERE name = ?", name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			res, err := tx.Exec("INSERT INTO artists (name) VALUES (?)", name)
			if err != nil {
				return nil, fmt.Errorf("failed to create artist %q: %w", name, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to look up artist %q: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

// resolveSong finds the song with this title whose performer credit set
// matches exactly, or creates it with all credits attached.
func resolveSong(tx *sql.Tx, title string, artistIDs map[string]int64, performers, featured, composers, producers []string) (int64, error) {
	performerIDs := idsFor(artistIDs, performers)

	id, err := matchByIDSet(tx,
		"SELECT id FROM songs WHERE title = ?", title,
		"SELECT artist_id FROM song_credits WHERE song_id = ? AND role = '"+RolePerformer+"'",
		performerIDs)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}

	res, err := tx.Exec("INSERT INTO songs (title) VALUES (?)", title)
	if err != nil {
		return 0, fmt.Errorf("failed to create song %q: %w", title, err)
	}
	songID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for role, names := range map[string][]string{
		RolePerformer: performers,
		RoleFeatured:  featured,
		RoleComposer:  composers,
		RoleProducer:  producers,
	} {
		for _, id := range idsFor(artistIDs, names) {
			if _, err := tx.Exec(
				"INSERT OR IGNORE INTO song_credits (song_id, artist_id, role) VALUES (?, ?, ?)",
				songID, id, role,
			); err != nil {
				return 0, fmt.Errorf("failed to credit song: %w", err)
			}
		}
	}
	return songID, nil
}

// resolveRelease finds the release with this title whose main-artist set
// matches exactly, or creates it. Files without an album tag land on
// "Unknown Release".
func resolveRelease(tx *sql.Tx, t *track.Track, artistIDs map[string]int64, mainArtists []string) (int64, error) {
	title := strVal(t.Tags.Album)
	if title == "" {
		title = "Unknown Release"
	}
	mainIDs := idsFor(artistIDs, mainArtists)

	id, err := matchByIDSet(tx,
		"SELECT id FROM releases WHERE title = ?", title,
		"SELECT artist_id FROM release_main_artists WHERE release_id = ?",
		mainIDs)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}

	var date interface{}
	if t.Tags.Year != nil {
		date = strconv.Itoa(*t.Tags.Year)
	}
	res, err := tx.Exec(
		"INSERT INTO releases (title, format, release_date) VALUES (?, ?, ?)",
		title, parseReleaseFormat(t.Tags.ReleaseType), date)
	if err != nil {
		return 0, fmt.Errorf("failed to create release %q: %w", title, err)
	}
	releaseID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, artistID := range mainIDs {
		if _, err := tx.Exec(
			"INSERT INTO release_main_artists (release_id, artist_id) VALUES (?, ?)",
			releaseID, artistID,
		); err != nil {
			return 0, fmt.Errorf("failed to link release artist: %w", err)
		}
	}

	if t.Tags.Genre != nil {
		values := splitGenres(*t.Tags.Genre)
		for i, v := range values {
			table, column := "release_genres", "genre"
			if i > 0 {
				// First value is the genre proper, the rest are
				// finer-grained style descriptors.
				table, column = "release_styles", "style"
			}
			if _, err := tx.Exec(
				"INSERT OR IGNORE INTO "+table+" (release_id, "+column+") VALUES (?, ?)",
				releaseID, v,
			); err != nil {
				return 0, fmt.Errorf("failed to tag release: %w", err)
			}
		}
	}
	return releaseID, nil
}

// matchByIDSet returns the candidate row (matched by candidateQuery and
// title) whose associated artist-id set equals want, or 0 when no
// candidate matches. An empty want set matches candidates with no
// associations.
func matchByIDSet(tx *sql.Tx, candidateQuery, title, assocQuery string, want []int64) (int64, error) {
	rows, err := tx.Query(candidateQuery, title)
	if err != nil {
		return 0, err
	}
	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	sorted := append([]int64(nil), want...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, candidate := range candidates {
		got, err := queryIDs(tx, assocQuery, candidate)
		if err != nil {
			return 0, err
		}
		if int64SlicesEqual(sorted, got) {
			return candidate, nil
		}
	}
	return 0, nil
}

func queryIDs(tx *sql.Tx, query string, arg int64) ([]int64, error) {
	rows, err := tx.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, rows.Err()
}

// upsertReleaseTrack writes the physical-file row. A row already keyed
// to this path is updated in place so its id survives tag churn.
func upsertReleaseTrack(tx *sql.Tx, t *track.Track, songID, releaseID int64) (int64, bool, error) {
	var existingID int64
	err := tx.QueryRow("SELECT id FROM release_tracks WHERE path = ?", t.File.Path).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, false, err
	}

	var score, assessment, features interface{}
	if a := t.Audio.Analysis; a != nil {
		score = a.QualityScore
		assessment = a.Assessment
		blob, err := json.Marshal(a.Outcome)
		if err != nil {
			return 0, false, err
		}
		features = blob
	}

	args := []interface{}{
		songID, releaseID,
		optArg(t.Tags.TrackNumber), optArg(t.Tags.DiscNumber),
		t.File.Path,
		t.File.SizeBytes, t.File.ModifiedUnix,
		t.Audio.Duration.Seconds(),
		optArg(t.Audio.BitrateKbps), optArg(t.Audio.SampleRateHz), optArg(t.Audio.Channels),
		strArg(t.Audio.Fingerprint),
	}

	if existingID != 0 {
		// A pass run with analysis disabled must not wipe quality data
		// written by an earlier pass, so those columns are only touched
		// when this track actually carries a fresh analysis.
		stmt := `
			UPDATE release_tracks SET
				song_id = ?, release_id = ?,
				track_number = ?, disc_number = ?,
				path = ?,
				size_bytes = ?, modified_timestamp = ?,
				duration_seconds = ?,
				bitrate_kbps = ?, sample_rate_hz = ?, channels = ?,
				fingerprint = COALESCE(?, fingerprint)`
		updateArgs := args
		if t.Audio.Analysis != nil {
			stmt += `,
				quality_score = ?, quality_assessment = ?, features = ?`
			updateArgs = append(updateArgs, score, assessment, features)
		}
		stmt += `
			WHERE id = ?`
		_, err := tx.Exec(stmt, append(updateArgs, existingID)...)
		if err != nil {
			return 0, false, fmt.Errorf("failed to update track: %w", err)
		}
		return existingID, false, nil
	}

	res, err := tx.Exec(`
		INSERT INTO release_tracks (
			song_id, release_id,
			track_number, disc_number,
			path,
			size_bytes, modified_timestamp,
			duration_seconds,
			bitrate_kbps, sample_rate_hz, channels,
			fingerprint,
			quality_score, quality_assessment, features
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append(args, score, assessment, features)...)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert track: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// insertArtworks records extracted cover art. Images are deduplicated
// by content hash across the whole catalog.
func insertArtworks(tx *sql.Tx, releaseID int64, artworks []track.Artwork) error {
	for _, art := range artworks {
		if _, err := tx.Exec(`
			INSERT INTO artworks (release_id, path, mime_type, description, hash)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, releaseID, art.Path, art.MimeType, strArg(art.Description), art.Hash); err != nil {
			return fmt.Errorf("failed to record artwork: %w", err)
		}
	}
	return nil
}

// DeleteUnseen removes every release_tracks row whose path was not seen
// in the pass just finished, then garbage collects entities left with
// no references. All of it happens in one transaction.
func (s *Store) DeleteUnseen(seen map[string]bool) ([]RemovedTrack, error) {
	all, err := s.AllPaths()
	if err != nil {
		return nil, err
	}

	var removed []RemovedTrack
	for path, id := range all {
		if !seen[path] {
			removed = append(removed, RemovedTrack{ID: id, Path: path})
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].Path < removed[j].Path })

	err = s.Transaction(func(tx *sql.Tx) error {
		for _, r := range removed {
			if _, err := tx.Exec("DELETE FROM release_tracks WHERE id = ?", r.ID); err != nil {
				return fmt.Errorf("failed to delete track %d: %w", r.ID, err)
			}
		}
		return collectOrphans(tx)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// collectOrphans deletes songs and releases no longer referenced by any
// release_tracks row, then artists left without a single credit.
// Cascades clean up credits, associations and artworks.
func collectOrphans(tx *sql.Tx) error {
	for _, stmt := range []string{
		"DELETE FROM songs WHERE id NOT IN (SELECT song_id FROM release_tracks)",
		"DELETE FROM releases WHERE id NOT IN (SELECT release_id FROM release_tracks)",
		`DELETE FROM artists WHERE
			id NOT IN (SELECT artist_id FROM song_credits) AND
			id NOT IN (SELECT artist_id FROM release_main_artists)`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("orphan collection failed: %w", err)
		}
	}
	return nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strArg(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func optArg(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func idsFor(artistIDs map[string]int64, names []string) []int64 {
	var ids []int64
	for _, name := range names {
		if id, ok := artistIDs[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func int64SlicesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
