package analysis

import (
	"math"
	"testing"
)

const testSampleRate = 44100

// enoughSamples covers comfortably more than MinWindowsToAnalyze windows.
const enoughSamples = (MinWindowsToAnalyze + 2) * FFTWindowSize

// sineMix synthesizes a deterministic mix of sinusoids at every frequency
// from startHz to endHz in stepHz increments.
func sineMix(n int, sampleRate float64, startHz, endHz, stepHz float64) []float32 {
	samples := make([]float32, n)
	for f := startHz; f <= endHz; f += stepHz {
		w := 2 * math.Pi * f / sampleRate
		for i := range samples {
			samples[i] += float32(0.05 * math.Sin(w*float64(i)))
		}
	}
	return samples
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := Analyze(nil, testSampleRate)
	if a.Outcome.Kind != OutcomeError {
		t.Errorf("outcome = %s, want %s", a.Outcome.Kind, OutcomeError)
	}
	if a.QualityScore != 0 {
		t.Errorf("score = %v, want 0", a.QualityScore)
	}
	if a.Assessment == "" {
		t.Error("assessment must always be produced")
	}
}

func TestAnalyzeInvalidSampleRate(t *testing.T) {
	a := Analyze(make([]float32, enoughSamples), 0)
	if a.Outcome.Kind != OutcomeError {
		t.Errorf("outcome = %s, want %s", a.Outcome.Kind, OutcomeError)
	}
}

func TestAnalyzeNotEnoughWindows(t *testing.T) {
	// Three windows worth of signal, ten required.
	a := Analyze(sineMix(3*FFTWindowSize, testSampleRate, 440, 440, 1), testSampleRate)
	if a.Outcome.Kind != OutcomeNotEnoughWindows {
		t.Fatalf("outcome = %s, want %s", a.Outcome.Kind, OutcomeNotEnoughWindows)
	}
	if a.Outcome.ProcessedWindows != 3 {
		t.Errorf("processed windows = %d, want 3", a.Outcome.ProcessedWindows)
	}
	if a.Outcome.RequiredWindows != MinWindowsToAnalyze {
		t.Errorf("required windows = %d, want %d", a.Outcome.RequiredWindows, MinWindowsToAnalyze)
	}
	if a.QualityScore != 0 {
		t.Errorf("score = %v, want 0", a.QualityScore)
	}
}

func TestAnalyzeSilenceIsLowReferenceLevel(t *testing.T) {
	a := Analyze(make([]float32, enoughSamples), testSampleRate)
	if a.Outcome.Kind != OutcomeLowReferenceLevel {
		t.Fatalf("outcome = %s, want %s", a.Outcome.Kind, OutcomeLowReferenceLevel)
	}
	if a.Outcome.ReferenceLevelDB >= minReliableDBLevel {
		t.Errorf("reference level %v not below floor %v", a.Outcome.ReferenceLevelDB, minReliableDBLevel)
	}
	if a.QualityScore != 0 {
		t.Errorf("score = %v, want 0", a.QualityScore)
	}
}

func TestAnalyzeLowpassedSignalDetectsCutoff(t *testing.T) {
	// Energy everywhere below 16.4 kHz, nothing above: the classic
	// signature of a lossy encode repackaged as lossless.
	samples := sineMix(enoughSamples, testSampleRate, 200, 16400, 200)

	a := Analyze(samples, testSampleRate)
	if a.Outcome.Kind != OutcomeCutoffDetected {
		t.Fatalf("outcome = %s, want %s", a.Outcome.Kind, OutcomeCutoffDetected)
	}
	if a.Outcome.CutoffFrequencyHz != CheckFreqStartHz {
		t.Errorf("cutoff at %v Hz, want first check band %v Hz", a.Outcome.CutoffFrequencyHz, CheckFreqStartHz)
	}
	if a.Outcome.ReferenceLevelDB-a.Outcome.CutoffBandLevelDB <= SignificantDropDB {
		t.Errorf("drop %v dB not above threshold %v",
			a.Outcome.ReferenceLevelDB-a.Outcome.CutoffBandLevelDB, SignificantDropDB)
	}
	if a.QualityScore != 5.0 {
		t.Errorf("score = %v, want 5.0 for 17 kHz cutoff", a.QualityScore)
	}
	if a.Assessment != "Medium" {
		t.Errorf("assessment = %q, want Medium", a.Assessment)
	}
}

func TestAnalyzeFullSpectrumSignalHasNoCutoff(t *testing.T) {
	// Energy all the way up to Nyquist.
	samples := sineMix(enoughSamples, testSampleRate, 200, 22040, 200)

	a := Analyze(samples, testSampleRate)
	if a.Outcome.Kind != OutcomeNoCutoffDetected {
		t.Fatalf("outcome = %s, want %s", a.Outcome.Kind, OutcomeNoCutoffDetected)
	}
	if a.QualityScore != 10.0 {
		t.Errorf("score = %v, want 10.0", a.QualityScore)
	}
	if a.Assessment != "Perfect" {
		t.Errorf("assessment = %q, want Perfect", a.Assessment)
	}
	if a.Outcome.MaxAnalyzedFreqHz <= ReferenceFreqEndHz {
		t.Errorf("max analyzed freq %v should exceed reference band end", a.Outcome.MaxAnalyzedFreqHz)
	}
}

func TestAnalyzeTruncatesToMaxDuration(t *testing.T) {
	// 30 s of silence: only the first MaxAnalysisSeconds should be
	// consumed, which is still enough windows to classify.
	samples := make([]float32, 30*testSampleRate)
	a := Analyze(samples, testSampleRate)
	if a.Outcome.Kind != OutcomeLowReferenceLevel {
		t.Errorf("outcome = %s, want %s", a.Outcome.Kind, OutcomeLowReferenceLevel)
	}
}

func TestCutoffScoreTiers(t *testing.T) {
	testCases := []struct {
		cutoffHz float64
		want     float64
	}{
		{22000, 9.8},
		{21000, 9.0},
		{20000, 8.0},
		{19000, 7.0},
		{18000, 6.0},
		{17000, 5.0},
		{16000, 4.0},
		{15000, 3.0},
		{8000, 3.0},
	}
	for _, tc := range testCases {
		if got := cutoffScore(tc.cutoffHz); got != tc.want {
			t.Errorf("cutoffScore(%v) = %v, want %v", tc.cutoffHz, got, tc.want)
		}
	}
}

func TestScoreAlwaysPresentForEveryVariant(t *testing.T) {
	variants := []Outcome{
		{Kind: OutcomeCutoffDetected, CutoffFrequencyHz: 17000},
		{Kind: OutcomeNoCutoffDetected, ReferenceLevelDB: -40},
		{Kind: OutcomeNotEnoughWindows, ProcessedWindows: 2, RequiredWindows: 10},
		{Kind: OutcomeReferenceBandError},
		{Kind: OutcomeLowReferenceLevel, ReferenceLevelDB: -120},
		{Kind: OutcomeError},
	}
	for _, v := range variants {
		score, assessment := scoreOutcome(v)
		if score < 0 || score > 10 {
			t.Errorf("variant %s: score %v out of range", v.Kind, score)
		}
		if assessment == "" {
			t.Errorf("variant %s: empty assessment", v.Kind)
		}
	}
}
