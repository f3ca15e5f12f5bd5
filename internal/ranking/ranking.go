// Package ranking filters, orders and tiers scored candidates.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/filtering"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/scoring"
)

// Tiers holds the lower bounds of tiers A, B and C; anything below C is D.
type Tiers struct {
	A float64 `mapstructure:"a" validate:"gte=0,lte=100"`
	B float64 `mapstructure:"b" validate:"gte=0,lte=100"`
	C float64 `mapstructure:"c" validate:"gte=0,lte=100"`
}

func DefaultTiers() Tiers {
	return Tiers{A: 85, B: 70, C: 50}
}

// Tier maps a total score to its tier. Only the score matters, never the position.
func (t Tiers) Tier(total float64) model.Tier {
	switch {
	case total >= t.A:
		return model.TierA
	case total >= t.B:
		return model.TierB
	case total >= t.C:
		return model.TierC
	default:
		return model.TierD
	}
}

// Config holds ranking thresholds. Zero tiers mean defaults; zero optional filters are disabled.
type Config struct {
	Tiers               Tiers   `mapstructure:"tiers"`
	CriticalSkillWeight float64 `mapstructure:"critical-skill-weight" validate:"gte=0,lte=1"`
	MinTotalScore       float64 `mapstructure:"min-total-score" validate:"gte=0,lte=100"`
}

// Validate checks tag constraints and tier ordering.
func (c Config) Validate() error {
	if err := scoring.Validate(c); err != nil {
		return err
	}
	t := c.Tiers
	if t == (Tiers{}) {
		return nil
	}
	if !(t.A > t.B && t.B > t.C) {
		return &scoring.ConfigurationError{
			Field:  "tiers",
			Reason: fmt.Sprintf("thresholds must be strictly decreasing, got A=%v B=%v C=%v", t.A, t.B, t.C),
		}
	}
	return nil
}

// Result is the ranked output of one job.
type Result struct {
	Ranked           []model.RankedCandidate
	Filtered         []model.RankedCandidate
	TierDistribution map[model.Tier]int
	Filters          []model.FilterReport
}

type Engine struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Engine {
	if cfg.Tiers == (Tiers{}) {
		cfg.Tiers = DefaultTiers()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Filters returns the mandatory filter steps for the requirement profile.
func (e *Engine) Filters(req *model.RequirementProfile) []filtering.Filter {
	return []filtering.Filter{
		filtering.NewMinimumExperience(req.MinExperienceYears),
		filtering.NewRequiredCertifications(req.Certifications),
		filtering.NewCriticalSkills(req.MustHave, e.cfg.CriticalSkillWeight),
		filtering.NewMinimumScore(e.cfg.MinTotalScore),
	}
}

// Rank applies mandatory filters, sorts the remaining candidates and assigns
// dense 1-based ranks and tiers. Filtered candidates keep their tier but get no rank.
func (e *Engine) Rank(ctx context.Context, req *model.RequirementProfile, scores []model.CandidateScore) (*Result, error) {
	candidates := filtering.NewCandidates(scores)

	filters := filtering.New(e.Filters(req), e.logger)
	steps, err := filters.Run(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("applying mandatory filters: %w", err)
	}

	Sort(candidates.Items)

	result := &Result{
		Ranked:           make([]model.RankedCandidate, 0, len(candidates.Items)),
		Filtered:         make([]model.RankedCandidate, 0, len(candidates.Filtered)),
		TierDistribution: map[model.Tier]int{model.TierA: 0, model.TierB: 0, model.TierC: 0, model.TierD: 0},
		Filters:          reports(filters.Describe(), steps),
	}

	for i, candidate := range candidates.Items {
		candidate.Rank = i + 1
		candidate.Tier = e.cfg.Tiers.Tier(candidate.Total)
		result.TierDistribution[candidate.Tier]++
		result.Ranked = append(result.Ranked, *candidate)
	}

	Sort(candidates.Filtered)
	for _, candidate := range candidates.Filtered {
		candidate.Rank = 0
		candidate.Tier = e.cfg.Tiers.Tier(candidate.Total)
		result.Filtered = append(result.Filtered, *candidate)
	}

	return result, nil
}

func reports(statuses []filtering.Status, steps map[string]filtering.Step) []model.FilterReport {
	out := make([]model.FilterReport, 0, len(statuses))
	for _, status := range statuses {
		step := steps[status.Name]
		out = append(out, model.FilterReport{
			Name:    status.Name,
			Enabled: status.Enabled,
			Reason:  status.Reason,
			Details: status.Details,
			Initial: step.Initial,
			Dropped: step.Dropped,
			Left:    step.Left,
		})
	}
	return out
}

// Sort orders candidates by total, skills and experience descending, then by id ascending.
func Sort(items []*model.RankedCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(&items[i].CandidateScore, &items[j].CandidateScore)
	})
}

// Less reports whether a ranks before b.
func Less(a, b *model.CandidateScore) bool {
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	if a.SubScores.Skills != b.SubScores.Skills {
		return a.SubScores.Skills > b.SubScores.Skills
	}
	if a.SubScores.Experience != b.SubScores.Experience {
		return a.SubScores.Experience > b.SubScores.Experience
	}
	return a.CandidateID < b.CandidateID
}
