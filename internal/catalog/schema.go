package catalog

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS artists (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	bio           TEXT,
	variations    TEXT,
	external_urls TEXT
);

CREATE TABLE IF NOT EXISTS songs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT UNIQUE,
	title       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS releases (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	format       TEXT NOT NULL DEFAULT 'Other',
	release_date TEXT
);

CREATE TABLE IF NOT EXISTS release_tracks (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id            INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	release_id         INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	track_number       INTEGER,
	disc_number        INTEGER,
	path               TEXT NOT NULL UNIQUE,
	title_override     TEXT,
	size_bytes         INTEGER NOT NULL,
	modified_timestamp INTEGER NOT NULL,
	duration_seconds   REAL NOT NULL,
	bitrate_kbps       INTEGER,
	sample_rate_hz     INTEGER,
	channels           INTEGER,
	fingerprint        TEXT,
	bpm                REAL,
	quality_score      REAL,
	quality_assessment TEXT,
	features           BLOB
);

CREATE TABLE IF NOT EXISTS song_credits (
	song_id   INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
	role      TEXT NOT NULL,
	PRIMARY KEY (song_id, artist_id, role)
);

CREATE TABLE IF NOT EXISTS release_main_artists (
	release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	artist_id  INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
	PRIMARY KEY (release_id, artist_id)
);

CREATE TABLE IF NOT EXISTS release_genres (
	release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	genre      TEXT NOT NULL,
	PRIMARY KEY (release_id, genre)
);

CREATE TABLE IF NOT EXISTS release_styles (
	release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	style      TEXT NOT NULL,
	PRIMARY KEY (release_id, style)
);

CREATE TABLE IF NOT EXISTS artworks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	release_id  INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	mime_type   TEXT,
	description TEXT,
	hash        TEXT NOT NULL UNIQUE,
	credits     TEXT
);

CREATE INDEX IF NOT EXISTS idx_release_tracks_song_id ON release_tracks(song_id);
CREATE INDEX IF NOT EXISTS idx_release_tracks_release_id ON release_tracks(release_id);
CREATE INDEX IF NOT EXISTS idx_song_credits_artist_id ON song_credits(artist_id);
CREATE INDEX IF NOT EXISTS idx_release_main_artists_artist_id ON release_main_artists(artist_id);
`
