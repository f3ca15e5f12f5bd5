package scoring

import (
	"fmt"
	"math"

	"github.com/spigell/cv-ranker/internal/model"
)

// DefaultTolerance is how far the weight sum may drift from 1.0 before normalization.
const DefaultTolerance = 0.01

// NormalizeWeights validates w and rescales it proportionally when its sum is
// outside 1 ± tolerance. The boolean reports whether an adjustment happened.
func NormalizeWeights(w model.ScoringWeights, tolerance float64) (model.ScoringWeights, bool, error) {
	if w.HasInvalid() {
		return w, false, &ConfigurationError{Field: "weights", Reason: "weights must be finite and non-negative"}
	}

	sum := w.Sum()
	if sum <= 0 {
		return w, false, &ConfigurationError{Field: "weights", Reason: "at least one weight must be positive"}
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if math.Abs(sum-1) <= tolerance {
		return w, false, nil
	}

	return w.Scale(1 / sum), true, nil
}

// ResolveWeights picks the weights for a job. Missing weights fall back to
// defaults; any adjustment is reported as an anomaly string.
func ResolveWeights(w, defaults model.ScoringWeights, tolerance float64) (model.ScoringWeights, []string, error) {
	var anomalies []string

	if w.IsZero() {
		w = defaults
		anomalies = append(anomalies, "requirement profile has no scoring weights, defaults applied")
	}

	sum := w.Sum()
	normalized, adjusted, err := NormalizeWeights(w, tolerance)
	if err != nil {
		return w, anomalies, err
	}
	if adjusted {
		anomalies = append(anomalies, fmt.Sprintf("scoring weights sum to %.4f, normalized to 1.0", sum))
	}

	return normalized, anomalies, nil
}
