// Package scoring aggregates match results into weighted, explainable candidate scores.
package scoring

import (
	"fmt"
	"math"

	"github.com/spigell/cv-ranker/internal/model"
)

const (
	DefaultStrengthThreshold = 85
	DefaultWeaknessThreshold = 50
	DefaultLowConfidence     = 0.5
	DefaultMaxNotes          = 5

	semanticShare = 0.3
)

// Config holds the thresholds used for confidence and strengths/weaknesses.
type Config struct {
	Tolerance         float64 `mapstructure:"weight-tolerance" validate:"gte=0,lt=1"`
	StrengthThreshold float64 `mapstructure:"strength-threshold" validate:"gte=0,lte=100"`
	WeaknessThreshold float64 `mapstructure:"weakness-threshold" validate:"gte=0,lte=100"`
	LowConfidence     float64 `mapstructure:"low-confidence" validate:"gte=0,lte=1"`
	MaxNotes          int     `mapstructure:"max-notes" validate:"gte=0"`
}

func (c Config) withDefaults() Config {
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.StrengthThreshold == 0 {
		c.StrengthThreshold = DefaultStrengthThreshold
	}
	if c.WeaknessThreshold == 0 {
		c.WeaknessThreshold = DefaultWeaknessThreshold
	}
	if c.LowConfidence == 0 {
		c.LowConfidence = DefaultLowConfidence
	}
	if c.MaxNotes == 0 {
		c.MaxNotes = DefaultMaxNotes
	}
	return c
}

// Engine turns match results into candidate scores. It is stateless.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Tolerance returns the configured weight-sum tolerance.
func (e *Engine) Tolerance() float64 {
	return e.cfg.Tolerance
}

type dimension struct {
	name  string
	score float64
	real  bool
}

// Score computes the candidate score. weights are expected to be normalized
// already (see ResolveWeights).
func (e *Engine) Score(profile *model.CandidateProfile, req *model.RequirementProfile, match model.MatchResult, weights model.ScoringWeights) model.CandidateScore {
	sub := model.SubScores{
		Skills:     clamp(match.Skills.Score),
		Experience: clamp(match.Experience.Score),
		Education:  clamp(match.Education.Score),
		Career:     clamp(match.Career.Score),
		Other:      clamp(match.Industry.Score),
	}

	total := weights.Skills*sub.Skills +
		weights.Experience*sub.Experience +
		weights.Education*sub.Education +
		weights.Career*sub.Career +
		weights.Other*sub.Other

	matched := match.Dimensions()
	dims := make([]dimension, len(matched))
	for i, d := range matched {
		dims[i] = dimension{name: model.DimensionNames[i], score: clamp(d.Score), real: !d.Default}
	}

	confidence := e.confidence(dims, sub.Skills, match.Semantic)

	return model.CandidateScore{
		CandidateID:   profile.ID,
		CandidateName: profile.Name,
		SubScores:     sub,
		Total:         clamp(total),
		Confidence:    confidence,
		LowConfidence: confidence < e.cfg.LowConfidence,
		Strengths:     e.strengths(dims, match),
		Weaknesses:    e.weaknesses(dims, req, match),
		Match:         match,
	}
}

func (e *Engine) confidence(dims []dimension, skills float64, semantic *float64) float64 {
	real := 0
	for _, d := range dims {
		if d.real {
			real++
		}
	}
	base := float64(real) / float64(len(dims))
	if semantic == nil {
		return base
	}

	agreement := 1 - math.Abs(skills-clamp(*semantic))/100
	return math.Max(0, math.Min(1, (1-semanticShare)*base+semanticShare*agreement))
}

func (e *Engine) strengths(dims []dimension, match model.MatchResult) []string {
	notes := []string{}
	for _, d := range dims {
		if d.real && d.score >= e.cfg.StrengthThreshold {
			notes = append(notes, fmt.Sprintf("strong %s match (%.0f)", d.name, d.score))
		}
	}
	for _, m := range match.MatchedSkills {
		if !m.Required {
			notes = append(notes, "has nice-to-have skill "+m.Skill)
		}
	}
	return e.limit(notes)
}

func (e *Engine) weaknesses(dims []dimension, req *model.RequirementProfile, match model.MatchResult) []string {
	notes := []string{}
	for _, skill := range match.MissingSkills {
		notes = append(notes, "missing required skill "+skill)
	}
	if req.MinExperienceYears > 0 && match.CandidateYears < req.MinExperienceYears {
		notes = append(notes, fmt.Sprintf("%.1f years of experience, %.1f required", match.CandidateYears, req.MinExperienceYears))
	}
	if !match.Education.Default && match.Education.Score < 100 {
		notes = append(notes, fmt.Sprintf("education below requirement (%s, %s required)", match.HighestDegree, match.RequiredDegree))
	}
	for _, cert := range match.MissingCertifications {
		notes = append(notes, "missing required certification "+cert)
	}
	for _, d := range dims {
		if d.real && d.score < e.cfg.WeaknessThreshold {
			notes = append(notes, fmt.Sprintf("weak %s match (%.0f)", d.name, d.score))
		}
	}
	return e.limit(notes)
}

func (e *Engine) limit(notes []string) []string {
	if len(notes) > e.cfg.MaxNotes {
		return notes[:e.cfg.MaxNotes]
	}
	return notes
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
