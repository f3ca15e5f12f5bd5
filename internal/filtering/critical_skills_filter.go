package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
)

type criticalSkillsFilter struct {
	threshold float64
	critical  map[string]struct{}
	disabled  bool
	reason    string
}

// NewCriticalSkills creates a filter that removes candidates missing a must-have
// skill whose weight is at least threshold. A non-positive threshold disables it.
func NewCriticalSkills(mustHave []model.SkillRequirement, threshold float64) Filter {
	f := &criticalSkillsFilter{
		threshold: threshold,
		critical:  make(map[string]struct{}),
	}
	if threshold <= 0 {
		f.Disable("critical skill weight is not configured")
		return f
	}
	for _, req := range mustHave {
		if req.Weight >= threshold {
			f.critical[req.Skill] = struct{}{}
		}
	}
	return f
}

func (f *criticalSkillsFilter) Name() string { return "critical_skills" }

func (f *criticalSkillsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *criticalSkillsFilter) IsEnabled() bool { return !f.disabled }

func (f *criticalSkillsFilter) Validate() error {
	if f.threshold > 1 {
		return fmt.Errorf("critical skill weight must be within (0,1], got %v", f.threshold)
	}
	return nil
}

func (f *criticalSkillsFilter) Apply(_ context.Context, c *Candidates) (Step, error) {
	if len(f.critical) == 0 {
		return Step{Initial: c.Len(), Dropped: 0, Left: c.Len()}, nil
	}

	return c.exclude(ReasonMissingCriticalSkill, func(candidate *model.RankedCandidate) bool {
		for _, missing := range candidate.Match.MissingSkills {
			if _, ok := f.critical[missing]; ok {
				return true
			}
		}
		return false
	}), nil
}

func (f *criticalSkillsFilter) Status() Status {
	details := map[string]string{"threshold": fmt.Sprintf("%.2f", f.threshold)}
	if len(f.critical) > 0 {
		names := make([]string, 0, len(f.critical))
		for name := range f.critical {
			names = append(names, name)
		}
		details["skills"] = strings.Join(names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
