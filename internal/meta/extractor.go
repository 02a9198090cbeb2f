// Package meta extracts tags and audio properties from audio files.
// Tag parsing uses the dhowden/tag reader; audio properties come from a
// cheap ffprobe pass, not a full decode.
package meta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/franz/music-catalog/internal/format"
	"github.com/franz/music-catalog/internal/track"
	"github.com/franz/music-catalog/internal/util"
)

// Extractor reads tags and probes audio properties for candidate files.
type Extractor struct {
	covers *CoverStore
}

// New creates an Extractor. covers may be nil, in which case embedded
// artwork is not extracted.
func New(covers *CoverStore) *Extractor {
	return &Extractor{covers: covers}
}

// Extract parses the container at path and returns tag fields plus probed
// audio properties. Failures are typed through the util sentinels:
// ErrUnreadable, ErrUnsupported, ErrCorrupt, and ErrTooShort when the
// decoded duration falls below the format policy minimum.
func (e *Extractor) Extract(ctx context.Context, path string, policy format.Spec) (track.TagInfo, track.AudioInfo, error) {
	var tags track.TagInfo
	var audio track.AudioInfo

	f, err := os.Open(path)
	if err != nil {
		return tags, audio, fmt.Errorf("%w: %v", util.ErrUnreadable, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		tags = e.tagInfo(m, path)
		tt := string(m.Format())
		if tt != "" {
			audio.TagType = &tt
		}
	case errors.Is(err, tag.ErrNoTagsFound):
		// Untagged audio is still a valid track.
	default:
		return tags, audio, fmt.Errorf("%w: tag parse: %v", util.ErrCorrupt, err)
	}

	props, err := ProbeAudio(ctx, path)
	if err != nil {
		return tags, audio, err
	}

	audio.Duration = time.Duration(props.DurationSecs * float64(time.Second))
	audio.BitrateKbps = optInt(props.BitrateKbps)
	audio.SampleRateHz = optInt(props.SampleRateHz)
	audio.Channels = optInt(props.Channels)

	if audio.Duration < policy.MinDuration {
		return tags, audio, fmt.Errorf("%w: %s below %s minimum",
			util.ErrTooShort, audio.Duration.Round(time.Second), policy.MinDuration)
	}

	return tags, audio, nil
}

// tagInfo maps the parsed tag metadata onto the transient model. Absent
// fields stay nil.
func (e *Extractor) tagInfo(m tag.Metadata, path string) track.TagInfo {
	info := track.TagInfo{
		Title:       optStr(m.Title()),
		Artist:      optStr(m.Artist()),
		Album:       optStr(m.Album()),
		AlbumArtist: optStr(m.AlbumArtist()),
		Genre:       optStr(m.Genre()),
		Composer:    optStr(m.Composer()),
		Comments:    optStr(m.Comment()),
		Year:        optInt(m.Year()),
		Producer:    producerFromRaw(m.Raw()),
		Publisher:   publisherFromRaw(m.Raw()),
		ReleaseType: releaseTypeFromRaw(m.Raw()),
		Rating:      ratingFrom(m),
	}

	trackNum, totalTracks := m.Track()
	info.TrackNumber = optInt(trackNum)
	info.TotalTracks = optInt(totalTracks)

	discNum, totalDiscs := m.Disc()
	info.DiscNumber = optInt(discNum)
	info.TotalDiscs = optInt(totalDiscs)

	if e.covers != nil {
		if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
			art, err := e.covers.Add(pic.Data, pic.MIMEType, optStr(pic.Description))
			if err != nil {
				util.WarnLog("Failed to store artwork for %s: %v", path, err)
			} else {
				info.Artwork = append(info.Artwork, art)
			}
		}
	}

	return info
}

// ratingFrom reads a rating from the raw tag frames: ID3v2 POPM for MP3,
// the RATING comment for Vorbis-style tags.
func ratingFrom(m tag.Metadata) track.Rating {
	raw := m.Raw()
	if raw == nil {
		return track.Unrated
	}

	if v, ok := raw["POPM"]; ok {
		if score, ok := popmScore(v); ok {
			return track.RatingFromPOPM(score)
		}
	}
	for _, key := range []string{"rating", "RATING"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return track.RatingFromVorbis(s)
			}
		}
	}
	return track.Unrated
}

// popmScore pulls the rating byte out of a raw POPM frame
// (email NUL rating counter...).
func popmScore(v interface{}) (uint8, bool) {
	data, ok := v.([]byte)
	if !ok {
		return 0, false
	}
	i := bytes.IndexByte(data, 0)
	if i < 0 || i+1 >= len(data) {
		return 0, false
	}
	return data[i+1], true
}

func publisherFromRaw(raw map[string]interface{}) *string {
	return rawString(raw, "TPUB", "publisher", "PUBLISHER", "organization")
}

// producerFromRaw reads the producer credit: the PRODUCER comment for
// Vorbis-style tags, or the producer entries of an ID3v2 involved-people
// frame (TIPL, IPLS in v2.3).
func producerFromRaw(raw map[string]interface{}) *string {
	if s := rawString(raw, "producer", "PRODUCER"); s != nil {
		return s
	}
	for _, key := range []string{"TIPL", "IPLS"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				if p := producersFromInvolvedPeople(s); p != "" {
					return &p
				}
			}
		}
	}
	return nil
}

// producersFromInvolvedPeople pulls the names credited with the producer
// role out of an involved-people list. The frame text alternates role and
// name, NUL separated (some writers use slashes instead).
func producersFromInvolvedPeople(text string) string {
	sep := "\x00"
	if !strings.Contains(text, sep) {
		sep = "/"
	}
	fields := strings.Split(text, sep)

	var names []string
	for i := 0; i+1 < len(fields); i += 2 {
		role := strings.TrimSpace(fields[i])
		name := strings.TrimSpace(fields[i+1])
		if strings.EqualFold(role, "producer") && name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func releaseTypeFromRaw(raw map[string]interface{}) *string {
	return rawString(raw, "RELEASETYPE", "releasetype", "MUSICBRAINZ_ALBUMTYPE", "musicbrainz_albumtype")
}

func rawString(raw map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return optStr(s)
			}
		}
	}
	return nil
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
