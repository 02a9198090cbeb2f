package track

import (
	"encoding/json"
	"math"
	"strconv"
)

// Rating is either unrated or a star value in [0.05, 5.0]. The zero value
// is Unrated.
type Rating struct {
	rated bool
	stars float64
}

// Unrated is the absent rating.
var Unrated = Rating{}

// Stars returns a rated value, clamped to [0, 5] and rounded to two
// decimal places.
func Stars(n float64) Rating {
	n = math.Round(math.Min(math.Max(n, 0), 5)*100) / 100
	return Rating{rated: true, stars: n}
}

// IsRated reports whether a rating is present.
func (r Rating) IsRated() bool { return r.rated }

// Value returns the star value and whether one is present.
func (r Rating) Value() (float64, bool) { return r.stars, r.rated }

// MarshalJSON encodes Unrated as null and Stars as a number.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.rated {
		return []byte("null"), nil
	}
	return json.Marshal(r.stars)
}

// UnmarshalJSON accepts null or a number.
func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Unrated
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Stars(n)
	return nil
}

// RatingFromPOPM converts an ID3v2 POPM byte (0-255) to a star rating.
// Zero means unrated; the remaining range maps linearly onto 1-5 stars.
func RatingFromPOPM(score uint8) Rating {
	if score == 0 {
		return Unrated
	}
	return Stars(1 + float64(score)/255*4)
}

// RatingFromVorbis converts a Vorbis RATING comment (1-100) to stars.
// Values outside the range are treated as unrated.
func RatingFromVorbis(value string) Rating {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 100 {
		return Unrated
	}
	return Stars(float64(n) / 20)
}
