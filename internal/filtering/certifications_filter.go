package filtering

import (
	"context"
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
)

type certificationsFilter struct {
	required []string
	disabled bool
	reason   string
}

// NewRequiredCertifications creates a filter that removes candidates lacking a required certification.
func NewRequiredCertifications(required []string) Filter {
	return &certificationsFilter{required: required}
}

func (f *certificationsFilter) Name() string { return "required_certifications" }

func (f *certificationsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *certificationsFilter) IsEnabled() bool { return !f.disabled }

func (f *certificationsFilter) Validate() error { return nil }

func (f *certificationsFilter) Apply(_ context.Context, c *Candidates) (Step, error) {
	if len(f.required) == 0 {
		return Step{Initial: c.Len(), Dropped: 0, Left: c.Len()}, nil
	}

	return c.exclude(ReasonMissingCertification, func(candidate *model.RankedCandidate) bool {
		return len(candidate.Match.MissingCertifications) > 0
	}), nil
}

func (f *certificationsFilter) Status() Status {
	details := map[string]string{}
	if len(f.required) > 0 {
		details["certifications"] = strings.Join(f.required, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
