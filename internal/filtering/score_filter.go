package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/cv-ranker/internal/model"
)

type minimumScoreFilter struct {
	minimum  float64
	disabled bool
	reason   string
}

// NewMinimumScore creates a filter that removes candidates whose total is below minimum.
// A non-positive minimum disables it.
func NewMinimumScore(minimum float64) Filter {
	f := &minimumScoreFilter{minimum: minimum}
	if minimum <= 0 {
		f.Disable("minimum total score is not configured")
	}
	return f
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minimumScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum > 100 {
		return fmt.Errorf("minimum total score must be within [0,100], got %v", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, c *Candidates) (Step, error) {
	return c.exclude(ReasonBelowMinimumScore, func(candidate *model.RankedCandidate) bool {
		return candidate.Total < f.minimum
	}), nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum": fmt.Sprintf("%.1f", f.minimum)},
	}
}
