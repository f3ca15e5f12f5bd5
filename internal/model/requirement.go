package model

import (
	"math"
	"strings"
)

const (
	DefaultMustHaveWeight   = 1.0
	DefaultNiceToHaveWeight = 0.5
)

// Seniority levels understood by the matcher.
const (
	SeniorityEntry     = "entry"
	SeniorityMid       = "mid"
	SenioritySenior    = "senior"
	SeniorityLead      = "lead"
	SeniorityPrincipal = "principal"
	SeniorityDirector  = "director"
	SeniorityExecutive = "executive"
)

var seniorityAliases = map[string]string{
	"junior":    SeniorityEntry,
	"entry":     SeniorityEntry,
	"intern":    SeniorityEntry,
	"mid":       SeniorityMid,
	"middle":    SeniorityMid,
	"senior":    SenioritySenior,
	"lead":      SeniorityLead,
	"staff":     SeniorityLead,
	"principal": SeniorityPrincipal,
	"director":  SeniorityDirector,
	"vp":        SeniorityExecutive,
	"cto":       SeniorityExecutive,
	"ceo":       SeniorityExecutive,
	"executive": SeniorityExecutive,
}

// NormalizeSeniority folds free-form seniority labels to a known level, mid by default.
func NormalizeSeniority(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, token := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}) {
		if level, ok := seniorityAliases[token]; ok {
			return level
		}
	}
	return SeniorityMid
}

// SkillRequirement is a required skill with its weight in [0,1].
type SkillRequirement struct {
	Skill  string  `json:"skill" mapstructure:"skill"`
	Weight float64 `json:"weight" mapstructure:"weight"`
}

// ScoringWeights is the weight vector applied to sub-scores.
type ScoringWeights struct {
	Skills     float64 `json:"skills" mapstructure:"skills" validate:"gte=0,lte=1"`
	Experience float64 `json:"experience" mapstructure:"experience" validate:"gte=0,lte=1"`
	Education  float64 `json:"education" mapstructure:"education" validate:"gte=0,lte=1"`
	Career     float64 `json:"career" mapstructure:"career" validate:"gte=0,lte=1"`
	Other      float64 `json:"other" mapstructure:"other" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the weights used when the analyzer supplies none.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Skills:     0.40,
		Experience: 0.30,
		Education:  0.15,
		Career:     0.10,
		Other:      0.05,
	}
}

func (w ScoringWeights) Sum() float64 {
	return w.Skills + w.Experience + w.Education + w.Career + w.Other
}

func (w ScoringWeights) IsZero() bool {
	return w == ScoringWeights{}
}

// Values returns the weights in fixed order: skills, experience, education, career, other.
func (w ScoringWeights) Values() []float64 {
	return []float64{w.Skills, w.Experience, w.Education, w.Career, w.Other}
}

// Scale multiplies every weight by factor.
func (w ScoringWeights) Scale(factor float64) ScoringWeights {
	return ScoringWeights{
		Skills:     w.Skills * factor,
		Experience: w.Experience * factor,
		Education:  w.Education * factor,
		Career:     w.Career * factor,
		Other:      w.Other * factor,
	}
}

// HasInvalid reports a negative, NaN or infinite component.
func (w ScoringWeights) HasInvalid() bool {
	for _, v := range w.Values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// RequirementProfile is the structured form of a job description.
// Created once per job and shared read-only between candidate tasks.
type RequirementProfile struct {
	Title              string             `json:"title" mapstructure:"title"`
	Company            string             `json:"company,omitempty" mapstructure:"company"`
	Seniority          string             `json:"seniority" mapstructure:"seniority"`
	MustHave           []SkillRequirement `json:"must_have" mapstructure:"must_have"`
	NiceToHave         []SkillRequirement `json:"nice_to_have" mapstructure:"nice_to_have"`
	MinExperienceYears float64            `json:"min_experience_years" mapstructure:"min_experience_years"`
	EducationLevel     string             `json:"education_level,omitempty" mapstructure:"education_level"`
	Industries         []string           `json:"industries,omitempty" mapstructure:"industries"`
	Certifications     []string           `json:"certifications,omitempty" mapstructure:"certifications"`
	Responsibilities   []string           `json:"responsibilities,omitempty" mapstructure:"responsibilities"`
	Weights            ScoringWeights     `json:"weights" mapstructure:"weights"`
	Description        string             `json:"description,omitempty" mapstructure:"description"`
	// Neutral marks the fallback profile used when analysis is unavailable.
	Neutral bool `json:"neutral,omitempty" mapstructure:"-"`
}

// ApplyDefaults fills omitted skill weights and the seniority level.
// Scoring weights are left as is; the scoring engine owns their validation.
func (r *RequirementProfile) ApplyDefaults() {
	r.Seniority = NormalizeSeniority(r.Seniority)
	r.MustHave = fillWeights(r.MustHave, DefaultMustHaveWeight)
	r.NiceToHave = fillWeights(r.NiceToHave, DefaultNiceToHaveWeight)
	if r.MinExperienceYears < 0 {
		r.MinExperienceYears = 0
	}
}

func fillWeights(in []SkillRequirement, def float64) []SkillRequirement {
	out := make([]SkillRequirement, 0, len(in))
	for _, req := range in {
		req.Skill = strings.TrimSpace(req.Skill)
		if req.Skill == "" {
			continue
		}
		if req.Weight <= 0 || math.IsNaN(req.Weight) {
			req.Weight = def
		}
		if req.Weight > 1 {
			req.Weight = 1
		}
		out = append(out, req)
	}
	return out
}

// NeutralRequirement is the degraded requirement profile: no constraints and default weights.
func NeutralRequirement(text string) *RequirementProfile {
	return &RequirementProfile{
		Title:       "unknown",
		Seniority:   SeniorityMid,
		Weights:     DefaultWeights(),
		Description: text,
		Neutral:     true,
	}
}
