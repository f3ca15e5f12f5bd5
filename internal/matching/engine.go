// Package matching compares one candidate profile against the job requirement profile.
package matching

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

const (
	DefaultRelatedCredit   = 0.7
	DefaultEducationStep   = 25
	DefaultRelevanceWeight = 0.3
	DefaultMaxExtraSkills  = 10
	DefaultTokenOverlap    = 0.5
	neutralScore           = 100
)

// Config tunes the matching arithmetic. Zero values are replaced by defaults.
type Config struct {
	RelatedCredit   float64 `mapstructure:"related-credit" validate:"gte=0,lte=1"`
	EducationStep   float64 `mapstructure:"education-step" validate:"gte=0,lte=100"`
	RelevanceWeight float64 `mapstructure:"experience-relevance-weight" validate:"gte=0,lte=1"`
	MaxExtraSkills  int     `mapstructure:"max-extra-skills" validate:"gte=0"`
	TokenOverlap    float64 `mapstructure:"token-overlap" validate:"gte=0,lte=1"`
}

func (c Config) withDefaults() Config {
	if c.RelatedCredit == 0 {
		c.RelatedCredit = DefaultRelatedCredit
	}
	if c.EducationStep == 0 {
		c.EducationStep = DefaultEducationStep
	}
	if c.RelevanceWeight == 0 {
		c.RelevanceWeight = DefaultRelevanceWeight
	}
	if c.MaxExtraSkills == 0 {
		c.MaxExtraSkills = DefaultMaxExtraSkills
	}
	if c.TokenOverlap == 0 {
		c.TokenOverlap = DefaultTokenOverlap
	}
	return c
}

// SemanticScorer returns a 0-100 similarity between the requirement and the candidate.
// It is optional and may call a remote model.
type SemanticScorer interface {
	Similarity(ctx context.Context, req *model.RequirementProfile, profile *model.CandidateProfile) (float64, error)
}

// Engine computes match results. It holds no per-job state and is safe for concurrent use.
type Engine struct {
	cfg      Config
	table    *skills.Table
	semantic SemanticScorer
	logger   *zap.Logger
}

// New builds an engine. A nil table means the built-in skills table; semantic may be nil.
func New(cfg Config, table *skills.Table, semantic SemanticScorer, logger *zap.Logger) *Engine {
	if table == nil {
		table = skills.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		table:    table,
		semantic: semantic,
		logger:   logger,
	}
}

// Match produces the match result for one candidate. It never fails: a failing
// semantic scorer only leaves the semantic signal empty.
func (e *Engine) Match(ctx context.Context, req *model.RequirementProfile, profile *model.CandidateProfile) model.MatchResult {
	result := model.MatchResult{
		CandidateID:           profile.ID,
		MatchedSkills:         []model.SkillMatch{},
		MissingSkills:         []string{},
		MissingNiceToHave:     []string{},
		ExtraSkills:           []string{},
		MissingCertifications: []string{},
		CandidateYears:        profile.TotalExperienceYears,
		RequiredYears:         req.MinExperienceYears,
	}

	e.matchSkills(req, profile, &result)
	result.Experience = e.matchExperience(req, profile)
	result.Education = e.matchEducation(req, profile, &result)
	result.Industry = matchIndustry(req, profile)
	result.Career = careerTrajectory(profile)
	result.MissingCertifications = e.missingCertifications(req, profile)

	if e.semantic != nil {
		score, err := e.semantic.Similarity(ctx, req, profile)
		switch {
		case err != nil:
			e.logger.Warn("semantic similarity unavailable",
				zap.String("candidate_id", profile.ID),
				zap.Error(err),
			)
		case math.IsNaN(score):
		default:
			clamped := clamp(score)
			result.Semantic = &clamped
		}
	}

	return result
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
