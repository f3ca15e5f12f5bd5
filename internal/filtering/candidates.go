package filtering

import "github.com/spigell/cv-ranker/internal/model"

// Reasons attached to filtered-out candidates.
const (
	ReasonBelowMinimumExperience = "below_minimum_experience"
	ReasonMissingCertification   = "missing_required_certification"
	ReasonMissingCriticalSkill   = "missing_critical_skill"
	ReasonBelowMinimumScore      = "below_minimum_score"
)

// Candidates holds the candidates still eligible for ranking and those removed by filters.
// Removed candidates are kept with their reason, never dropped.
type Candidates struct {
	Items    []*model.RankedCandidate
	Filtered []*model.RankedCandidate
}

// NewCandidates wraps scored candidates for filtering.
func NewCandidates(scores []model.CandidateScore) *Candidates {
	items := make([]*model.RankedCandidate, 0, len(scores))
	for _, score := range scores {
		items = append(items, &model.RankedCandidate{CandidateScore: score})
	}
	return &Candidates{Items: items}
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

// Exclude moves every candidate matching drop to Filtered with the given reason.
// Order of the remaining items is preserved. Returns the excluded candidate ids.
func (c *Candidates) Exclude(reason string, drop func(*model.RankedCandidate) bool) []string {
	var excluded []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if drop(candidate) {
			candidate.FilterReason = reason
			c.Filtered = append(c.Filtered, candidate)
			excluded = append(excluded, candidate.CandidateID)
			continue
		}
		kept = append(kept, candidate)
	}
	c.Items = kept
	return excluded
}

func (c *Candidates) exclude(reason string, drop func(*model.RankedCandidate) bool) Step {
	initial := c.Len()
	excluded := c.Exclude(reason, drop)
	return Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}
}
