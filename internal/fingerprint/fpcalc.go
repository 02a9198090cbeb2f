// Package fingerprint computes acoustic content fingerprints via the
// chromaprint fpcalc tool. A fingerprint identifies a recording across
// paths and containers; it is auxiliary metadata, never an identity key.
package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/franz/music-catalog/internal/util"
)

type fpcalcOutput struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Compute runs fpcalc over the file at path. A missing fpcalc binary or
// audio too short to fingerprint yields (nil, nil): absence of a
// fingerprint is a normal outcome, not an error.
func Compute(ctx context.Context, path string) (*string, error) {
	if _, err := exec.LookPath("fpcalc"); err != nil {
		util.DebugLog("fpcalc not installed, skipping fingerprint for %s", path)
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, "fpcalc", "-json", path)
	output, err := cmd.Output()
	if err != nil {
		// fpcalc fails on very short or degenerate audio; the catalog
		// simply stores a null fingerprint.
		util.DebugLog("fpcalc produced no fingerprint for %s: %v", path, err)
		return nil, nil
	}

	var result fpcalcOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse fpcalc output: %w", err)
	}
	if result.Fingerprint == "" {
		return nil, nil
	}
	return &result.Fingerprint, nil
}

// CheckFpcalcAvailable checks if fpcalc is available in PATH
func CheckFpcalcAvailable() bool {
	_, err := exec.LookPath("fpcalc")
	return err == nil
}
