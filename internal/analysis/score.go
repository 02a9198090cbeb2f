package analysis

import "fmt"

// scoreOutcome maps a classification to a numeric quality score and a short
// textual assessment. Cutoff frequency drives a tiered score: the closer the
// rolloff sits to Nyquist, the more of the original spectrum survived.
// Inconclusive outcomes score zero: the synchronizer never guesses quality.
func scoreOutcome(o Outcome) (float64, string) {
	switch o.Kind {
	case OutcomeCutoffDetected:
		score := cutoffScore(o.CutoffFrequencyHz)
		return score, cutoffAssessment(score)

	case OutcomeNoCutoffDetected:
		return 10.0, "Perfect"

	case OutcomeNotEnoughWindows:
		return 0.0, fmt.Sprintf(
			"Incomplete analysis (insufficient windows %d/%d). Quality not determined.",
			o.ProcessedWindows, o.RequiredWindows)

	case OutcomeReferenceBandError:
		return 0.0, "Incomplete analysis (error in reference band). Quality not determined."

	case OutcomeLowReferenceLevel:
		return 0.0, fmt.Sprintf(
			"Analysis inconclusive (low reference level %.1f dB). Quality not determined.",
			o.ReferenceLevelDB)

	default:
		return 0.0, "Analysis inconclusive"
	}
}

// cutoffScore tiers the detected cutoff frequency. The bands roughly track
// typical lossy encoder lowpass settings: ~16 kHz for 128k MP3 up through
// ~20 kHz for transparent encodes, with anything at 21.5 kHz or above being
// effectively full-spectrum.
func cutoffScore(cutoffHz float64) float64 {
	switch {
	case cutoffHz >= 21500:
		return 9.8
	case cutoffHz >= 20500:
		return 9.0
	case cutoffHz >= 19500:
		return 8.0
	case cutoffHz >= 18500:
		return 7.0
	case cutoffHz >= 17500:
		return 6.0
	case cutoffHz >= 16500:
		return 5.0
	case cutoffHz >= 15500:
		return 4.0
	default:
		return 3.0
	}
}

func cutoffAssessment(score float64) string {
	switch {
	case score >= 9.5:
		return "Excellent"
	case score >= 8.5:
		return "Very High"
	case score >= 7.5:
		return "High"
	case score >= 6.5:
		return "Good"
	case score >= 5.5:
		return "Medium-High"
	case score >= 4.5:
		return "Medium"
	case score >= 3.5:
		return "Medium-Low"
	default:
		return "Low"
	}
}
