// Package analysis implements spectral quality assessment of decoded audio.
//
// The analyzer averages FFT magnitude spectra over Hann-windowed frames and
// compares the energy of a high-frequency reference band against a series of
// check bands above it. A steep drop marks the cutoff left behind by a lossy
// encoder, which is how lossy-transcoded-as-lossless files are flagged.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FFTWindowSize is the number of samples per analysis window.
	FFTWindowSize = 8192

	// Reference band: energy here is the baseline the check bands are
	// measured against.
	ReferenceFreqStartHz = 14000.0
	ReferenceFreqEndHz   = 16000.0

	// Check bands start above the reference band and step upward.
	CheckFreqStartHz = 17000.0
	CheckBandWidthHz = 1000.0
	NumCheckBands    = 6

	// SignificantDropDB is the reference-to-band level difference that
	// counts as a cutoff.
	SignificantDropDB = 18.0

	// MinWindowsToAnalyze is the minimum number of FFT windows for a
	// statistically usable average spectrum.
	MinWindowsToAnalyze = 10

	// MaxAnalysisSeconds bounds how much audio is analyzed per file.
	MaxAnalysisSeconds = 10.0

	// minReliableDBLevel is the floor below which the reference band is
	// considered silence and the analysis inconclusive.
	minReliableDBLevel = -100.0
)

// OutcomeKind discriminates the AnalysisOutcome variants.
type OutcomeKind string

const (
	OutcomeCutoffDetected     OutcomeKind = "cutoff_detected"
	OutcomeNoCutoffDetected   OutcomeKind = "no_cutoff_detected"
	OutcomeNotEnoughWindows   OutcomeKind = "inconclusive_not_enough_windows"
	OutcomeReferenceBandError OutcomeKind = "inconclusive_reference_band_error"
	OutcomeLowReferenceLevel  OutcomeKind = "inconclusive_low_reference_level"
	OutcomeError              OutcomeKind = "inconclusive_error"
)

// Outcome is the closed classification of one spectral analysis. Exactly one
// variant holds; Kind selects it and only that variant's fields are set.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// CutoffDetected
	CutoffFrequencyHz float64 `json:"cutoff_frequency_hz,omitempty"`
	CutoffBandLevelDB float64 `json:"cutoff_band_level_db,omitempty"`

	// CutoffDetected, NoCutoffDetected, LowReferenceLevel
	ReferenceLevelDB float64 `json:"reference_level_db,omitempty"`

	// NoCutoffDetected
	MaxAnalyzedFreqHz float64 `json:"max_analyzed_freq_hz,omitempty"`

	// NotEnoughWindows
	ProcessedWindows int `json:"processed_windows,omitempty"`
	RequiredWindows  int `json:"required_windows,omitempty"`
}

// Analysis is the result of one quality assessment. A score and assessment
// are always produced, even for inconclusive outcomes.
type Analysis struct {
	Outcome      Outcome `json:"outcome"`
	QualityScore float64 `json:"quality_score"`
	Assessment   string  `json:"assessment"`
}

// Analyze runs the spectral cutoff analysis over mono samples at the given
// sample rate. It never returns an error: every failure mode maps to an
// inconclusive outcome variant.
func Analyze(samples []float32, sampleRate int) Analysis {
	if sampleRate <= 0 || len(samples) == 0 {
		return finish(Outcome{Kind: OutcomeError})
	}

	maxSamples := int(MaxAnalysisSeconds * float64(sampleRate))
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}

	avgSpectrumDB, windows := averageSpectrum(samples)
	outcome := classify(windows, avgSpectrumDB, sampleRate)
	return finish(outcome)
}

func finish(outcome Outcome) Analysis {
	score, assessment := scoreOutcome(outcome)
	return Analysis{Outcome: outcome, QualityScore: score, Assessment: assessment}
}

// averageSpectrum accumulates per-bin dB magnitudes over consecutive
// Hann-windowed FFT frames and returns the per-bin average plus the number
// of complete windows processed.
func averageSpectrum(samples []float32) ([]float64, int) {
	fft := fourier.NewFFT(FFTWindowSize)
	hann := hannWindow(FFTWindowSize)

	bins := FFTWindowSize / 2
	acc := make([]float64, bins)
	frame := make([]float64, FFTWindowSize)
	windows := 0

	for off := 0; off+FFTWindowSize <= len(samples); off += FFTWindowSize {
		for i := 0; i < FFTWindowSize; i++ {
			frame[i] = float64(samples[off+i]) * hann[i]
		}
		coeffs := fft.Coefficients(nil, frame)
		for i := 0; i < bins; i++ {
			mag := cmplxAbs(coeffs[i])
			acc[i] += 20 * math.Log10(math.Max(mag, 1e-10))
		}
		windows++
	}

	if windows > 0 {
		for i := range acc {
			acc[i] /= float64(windows)
		}
	}
	return acc, windows
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// avgDBInBand averages the spectrum bins covering [startHz, endHz].
// Returns false when the band falls outside the spectrum.
func avgDBInBand(startHz, endHz, freqPerBin float64, spectrum []float64) (float64, bool) {
	if len(spectrum) == 0 || freqPerBin <= 0 {
		return 0, false
	}
	startBin := int(math.Round(startHz / freqPerBin))
	endBin := int(math.Round(endHz / freqPerBin))
	last := len(spectrum) - 1
	if startBin > last {
		return 0, false
	}
	if endBin > last {
		endBin = last
	}
	if startBin > endBin {
		return 0, false
	}

	sum := 0.0
	for i := startBin; i <= endBin; i++ {
		sum += spectrum[i]
	}
	return sum / float64(endBin-startBin+1), true
}

func classify(windows int, spectrum []float64, sampleRate int) Outcome {
	if windows < MinWindowsToAnalyze {
		return Outcome{
			Kind:             OutcomeNotEnoughWindows,
			ProcessedWindows: windows,
			RequiredWindows:  MinWindowsToAnalyze,
		}
	}

	nyquist := float64(sampleRate) / 2
	if len(spectrum) == 0 {
		return Outcome{Kind: OutcomeReferenceBandError}
	}
	freqPerBin := nyquist / float64(len(spectrum))

	refDB, ok := avgDBInBand(ReferenceFreqStartHz, ReferenceFreqEndHz, freqPerBin, spectrum)
	if !ok {
		return Outcome{Kind: OutcomeReferenceBandError}
	}
	if refDB < minReliableDBLevel {
		return Outcome{
			Kind:             OutcomeLowReferenceLevel,
			ReferenceLevelDB: refDB,
		}
	}

	maxAnalyzedHz := ReferenceFreqEndHz
	for i := 0; i < NumCheckBands; i++ {
		bandStart := CheckFreqStartHz + float64(i)*CheckBandWidthHz
		if bandStart >= nyquist {
			break
		}
		bandEnd := math.Min(bandStart+CheckBandWidthHz, nyquist)
		maxAnalyzedHz = bandEnd

		bandDB, ok := avgDBInBand(bandStart, bandEnd, freqPerBin, spectrum)
		if !ok {
			// Band outside the measured spectrum; nothing to compare.
			continue
		}
		if refDB-bandDB > SignificantDropDB {
			return Outcome{
				Kind:              OutcomeCutoffDetected,
				CutoffFrequencyHz: bandStart,
				ReferenceLevelDB:  refDB,
				CutoffBandLevelDB: bandDB,
			}
		}
	}

	return Outcome{
		Kind:              OutcomeNoCutoffDetected,
		ReferenceLevelDB:  refDB,
		MaxAnalyzedFreqHz: maxAnalyzedHz,
	}
}
