package model

// Match kinds for a required skill.
const (
	MatchExact   = "exact"
	MatchRelated = "related"
)

// SkillMatch describes how a required skill was satisfied.
type SkillMatch struct {
	Skill     string  `json:"skill"`
	MatchedBy string  `json:"matched_by"`
	Kind      string  `json:"kind"`
	Required  bool    `json:"required"`
	Weight    float64 `json:"weight"`
	Credit    float64 `json:"credit"`
}

// Dimension is one matching dimension. Default is set when the score is a
// neutral value rather than backed by evidence.
type Dimension struct {
	Score    float64  `json:"score"`
	Default  bool     `json:"default,omitempty"`
	Evidence []string `json:"evidence"`
}

// MatchResult is the per-candidate outcome of matching against the requirement profile.
type MatchResult struct {
	CandidateID           string       `json:"candidate_id"`
	MatchedSkills         []SkillMatch `json:"matched_skills"`
	MissingSkills         []string     `json:"missing_skills"`
	MissingNiceToHave     []string     `json:"missing_nice_to_have"`
	ExtraSkills           []string     `json:"extra_skills"`
	MissingCertifications []string     `json:"missing_certifications"`

	Skills     Dimension `json:"skills"`
	Experience Dimension `json:"experience"`
	Education  Dimension `json:"education"`
	Industry   Dimension `json:"industry"`
	Career     Dimension `json:"career"`
	Semantic   *float64  `json:"semantic,omitempty"`

	CandidateYears float64 `json:"candidate_years"`
	RequiredYears  float64 `json:"required_years"`
	HighestDegree  string  `json:"highest_degree"`
	RequiredDegree string  `json:"required_degree"`
}

// DimensionNames are the names of the scored dimensions in Dimensions order.
var DimensionNames = []string{"skills", "experience", "education", "career", "industry"}

// Dimensions returns the scored dimensions in sub-score order.
func (m *MatchResult) Dimensions() []Dimension {
	return []Dimension{m.Skills, m.Experience, m.Education, m.Career, m.Industry}
}

// SubScores holds the clamped 0-100 sub-scores of a candidate.
type SubScores struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Career     float64 `json:"career"`
	Other      float64 `json:"other"`
}

// CandidateScore is the aggregated, explainable score of one candidate.
type CandidateScore struct {
	CandidateID   string      `json:"candidate_id"`
	CandidateName string      `json:"candidate_name"`
	SubScores     SubScores   `json:"sub_scores"`
	Total         float64     `json:"total"`
	Confidence    float64     `json:"confidence"`
	LowConfidence bool        `json:"low_confidence,omitempty"`
	Strengths     []string    `json:"strengths"`
	Weaknesses    []string    `json:"weaknesses"`
	Match         MatchResult `json:"match"`
}

type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// RankedCandidate is a scored candidate placed in the final ordering.
// Rank is zero and FilterReason set for candidates removed by a mandatory filter.
type RankedCandidate struct {
	CandidateScore
	Rank         int    `json:"rank,omitempty"`
	Tier         Tier   `json:"tier"`
	FilterReason string `json:"filter_reason,omitempty"`
}

// CandidateFailure records a candidate excluded before scoring.
type CandidateFailure struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name,omitempty"`
	Stage       string `json:"stage"`
	Reason      string `json:"reason"`
}

// FilterReport describes one mandatory filter of a job. Disabled filters carry
// the reason and zero counters.
type FilterReport struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Initial int               `json:"initial"`
	Dropped int               `json:"dropped"`
	Left    int               `json:"left"`
}

// JobResult is the final artifact of a completed job.
type JobResult struct {
	Ranked           []RankedCandidate  `json:"ranked"`
	Filtered         []RankedCandidate  `json:"filtered"`
	Excluded         []CandidateFailure `json:"excluded"`
	TierDistribution map[Tier]int       `json:"tier_distribution"`
	Filters          []FilterReport     `json:"filters,omitempty"`
	Anomalies        []string           `json:"anomalies,omitempty"`
	Requirement      RequirementProfile `json:"requirement"`
}
