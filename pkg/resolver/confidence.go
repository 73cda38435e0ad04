package resolver

// Store-similarity thresholds (higher is better).
const (
	simExact  = 0.99
	simHigh   = 0.70
	simMedium = 0.50
)

// Index-distance thresholds (lower is better).
const (
	distHigh   = 0.2
	distMedium = 0.4
)

// confidenceFromSimilarity calibrates a trigram similarity in [0,1] into the
// shared confidence scale.
func confidenceFromSimilarity(sim float64) Confidence {
	switch {
	case sim >= simExact:
		return ConfidenceExact
	case sim >= simHigh:
		return ConfidenceHigh
	case sim >= simMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// confidenceFromDistance calibrates a fuzzy-index distance in [0,1] (0 is a
// perfect match) into the shared confidence scale.
func confidenceFromDistance(dist float64) Confidence {
	switch {
	case dist == 0:
		return ConfidenceExact
	case dist < distHigh:
		return ConfidenceHigh
	case dist < distMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
