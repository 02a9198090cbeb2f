package catalog

import (
	"regexp"
	"strings"
)

// Credit roles stored in song_credits.role.
const (
	RolePerformer = "performer"
	RoleFeatured  = "featured"
	RoleComposer  = "composer"
	RoleProducer  = "producer"
)

// artistSeparators normalizes the many ways tags join multiple artists
// ("A feat. B", "A & B", "A / B", "A、B") into a single ';' separator.
var artistSeparators = regexp.MustCompile(`(?i)(\s*f(ea)?t(\.)?\s+)|(\s*([&×,|])\s*)|(\s/\s)|(・)`)

// splitArtists parses a raw artist tag into individual artist names.
func splitArtists(raw string) []string {
	normalized := artistSeparators.ReplaceAllString(raw, ";")

	var names []string
	for _, part := range strings.Split(normalized, ";") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitPerformers splits an artist tag into main performers and featured
// guests. Guests are only split off when the raw tag spells out a
// featuring clause; "A & B" stays two equal performers.
func splitPerformers(raw string) (performers, featured []string) {
	names := splitArtists(raw)
	if len(names) > 1 {
		lower := strings.ToLower(raw)
		if strings.Contains(lower, " ft") || strings.Contains(lower, " feat") {
			return names[:1], names[1:]
		}
	}
	return names, nil
}

// releaseFormats maps normalized release-type tokens onto the canonical
// format names. Aliases follow Discogs/MusicBrainz conventions.
var releaseFormats = map[string]string{
	"album": "Album", "lp": "Album", "longplay": "Album", "fulllength": "Album",
	"single": "Single", "onesidedsingle": "Single", "1tracksingle": "Single",
	"ep": "EP", "extendedplay": "EP", "minialbum": "EP", "minilp": "EP",
	"compilation": "Compilation", "comp": "Compilation", "anthology": "Compilation",
	"bestof": "Compilation", "greatesthits": "Compilation",
	"variousartists": "Compilation", "va": "Compilation",
	"mix": "Mix", "djmix": "Mix", "mixtape": "Mix", "continuousmix": "Mix",
	"mixed": "Mix", "remix": "Mix",
}

// parseReleaseFormat canonicalizes a raw release-type tag. Multiple
// values stay joined by ';'; unrecognized values are kept verbatim; a
// missing or empty tag falls back to "Other".
func parseReleaseFormat(raw *string) string {
	var formats []string
	if raw != nil {
		for _, part := range strings.Split(*raw, ";") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if canonical, ok := releaseFormats[normalizeFormatToken(trimmed)]; ok {
				formats = append(formats, canonical)
			} else {
				formats = append(formats, trimmed)
			}
		}
	}
	if len(formats) == 0 {
		return "Other"
	}
	return strings.Join(formats, ";")
}

// normalizeFormatToken lowercases a release-type value and drops the
// separator characters taggers sprinkle into it ("Extended Play",
// "mini-LP", "DJ_Mix").
func normalizeFormatToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '.', '/', '\\':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitGenres parses a genre tag that may hold several values joined by
// '/', ';' or ','.
func splitGenres(raw string) []string {
	var genres []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == ';' || r == ','
	}) {
		if g := strings.TrimSpace(part); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
