package filtering

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spigell/cv-ranker/internal/model"
)

type minimumExperienceFilter struct {
	minimum  float64
	disabled bool
	reason   string
}

// NewMinimumExperience creates a filter that removes candidates with fewer years than required.
func NewMinimumExperience(minimum float64) Filter {
	return &minimumExperienceFilter{minimum: minimum}
}

func (f *minimumExperienceFilter) Name() string { return "minimum_experience" }

func (f *minimumExperienceFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minimumExperienceFilter) IsEnabled() bool { return !f.disabled }

func (f *minimumExperienceFilter) Validate() error {
	if f.minimum < 0 || math.IsNaN(f.minimum) {
		return fmt.Errorf("minimum experience must be non-negative, got %v", f.minimum)
	}
	return nil
}

func (f *minimumExperienceFilter) Apply(_ context.Context, c *Candidates) (Step, error) {
	if f.minimum <= 0 {
		return Step{Initial: c.Len(), Dropped: 0, Left: c.Len()}, nil
	}

	return c.exclude(ReasonBelowMinimumExperience, func(candidate *model.RankedCandidate) bool {
		return candidate.Match.CandidateYears < f.minimum
	}), nil
}

func (f *minimumExperienceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_years": strconv.FormatFloat(f.minimum, 'f', 1, 64)},
	}
}
