// Package audio wraps ffmpeg for PCM decoding. Decoding is treated as a
// black box: the engine only consumes the resulting sample stream.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"

	"github.com/franz/music-catalog/internal/util"
)

// DecodeMono decodes the audio file at path into mono float32 samples at
// its native sample rate (as reported by the caller from the probe step).
// ffmpeg handles every container the format policy admits.
func DecodeMono(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", util.ErrCorrupt, sampleRate)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, util.ErrNotFound
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-f", "f32le",
		"pipe:1",
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg decode: %s", util.ErrCorrupt, stderr.String())
	}

	raw := out.Bytes()
	if len(raw)%4 != 0 {
		raw = raw[:len(raw)-len(raw)%4]
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

// CheckFFmpegAvailable checks if ffmpeg is available in PATH
func CheckFFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
