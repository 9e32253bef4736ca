package patterns

// ConfidenceFromSamples maps a sample size to a confidence score. The bands
// are deliberately coarse: statistical confidence here is a heuristic for
// review prioritization, not a significance test. A consistency bonus of
// +0.10 (capped at 1.0) applies when a result holds across sub-groups.
func ConfidenceFromSamples(n int, consistent bool) float64 {
	var base float64
	switch {
	case n < 10:
		base = 0.30
	case n <= 50:
		base = 0.50
	case n <= 200:
		base = 0.70
	default:
		base = 0.85
	}

	if consistent {
		base += 0.10
		if base > 1.0 {
			base = 1.0
		}
	}
	return base
}
