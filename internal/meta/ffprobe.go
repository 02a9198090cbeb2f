package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/franz/music-catalog/internal/util"
)

// ffprobeInfo represents the output from ffprobe
type ffprobeInfo struct {
	Streams []ffprobeStream `json:"streams"`
	Format  *ffprobeFormat  `json:"format"`
}

// ffprobeStream represents one stream inside the container
type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// ffprobeFormat represents container-level metadata
type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// AudioProperties are the cheap probe results: no full decode involved.
type AudioProperties struct {
	DurationSecs float64
	BitrateKbps  int
	SampleRateHz int
	Channels     int
	Codec        string
}

// ProbeAudio executes ffprobe and extracts the audio stream properties.
// Returns util.ErrNotFound when ffprobe is not installed,
// util.ErrUnsupported when the container holds no audio stream, and
// util.ErrCorrupt when ffprobe cannot parse the file at all.
func ProbeAudio(ctx context.Context, path string) (*AudioProperties, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, util.ErrNotFound
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%w: ffprobe: %s", util.ErrCorrupt, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info ffprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("%w: unparseable ffprobe output", util.ErrCorrupt)
	}

	var audio *ffprobeStream
	for i := range info.Streams {
		if info.Streams[i].CodecType == "audio" {
			audio = &info.Streams[i]
			break
		}
	}
	if audio == nil {
		return nil, fmt.Errorf("%w: no audio stream in container", util.ErrUnsupported)
	}

	props := &AudioProperties{
		Codec:        audio.CodecName,
		Channels:     audio.Channels,
		SampleRateHz: atoiOrZero(audio.SampleRate),
	}

	// Duration and bitrate live on the stream for some containers and on
	// the format for others; prefer stream, fall back to format.
	props.DurationSecs = atofOrZero(audio.Duration)
	bitrate := atoiOrZero(audio.BitRate)
	if info.Format != nil {
		if props.DurationSecs == 0 {
			props.DurationSecs = atofOrZero(info.Format.Duration)
		}
		if bitrate == 0 {
			bitrate = atoiOrZero(info.Format.BitRate)
		}
	}
	props.BitrateKbps = bitrate / 1000

	return props, nil
}

// CheckFFprobeAvailable checks if ffprobe is available in PATH
func CheckFFprobeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atofOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
