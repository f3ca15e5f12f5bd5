package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "our": {}, "you": {}, "your": {},
	"will": {}, "are": {}, "from": {}, "into": {}, "that": {}, "this": {}, "have": {},
	"has": {}, "all": {}, "any": {}, "who": {}, "work": {}, "team": {}, "teams": {},
	"across": {}, "using": {}, "etc": {}, "years": {}, "year": {}, "experience": {},
	"strong": {}, "good": {}, "ability": {}, "skills": {}, "knowledge": {},
}

func keywords(text string) []string {
	out := []string{}
	for _, token := range strings.Fields(skills.Normalize(text)) {
		token = strings.Trim(token, ".")
		if len([]rune(token)) < 3 {
			continue
		}
		if _, ok := stopWords[token]; ok {
			continue
		}
		out = append(out, token)
	}
	return out
}

func (e *Engine) requirementKeywords(req *model.RequirementProfile) map[string]struct{} {
	set := make(map[string]struct{})
	add := func(text string) {
		for _, kw := range keywords(text) {
			set[kw] = struct{}{}
		}
	}
	for _, r := range req.MustHave {
		add(e.table.Canonical(r.Skill))
	}
	for _, r := range req.NiceToHave {
		add(e.table.Canonical(r.Skill))
	}
	add(req.Title)
	for _, resp := range req.Responsibilities {
		add(resp)
	}
	return set
}

func (e *Engine) candidateKeywords(profile *model.CandidateProfile) map[string]struct{} {
	set := make(map[string]struct{})
	add := func(text string) {
		for _, kw := range keywords(text) {
			set[kw] = struct{}{}
		}
	}
	for _, exp := range profile.Experience {
		add(exp.Role)
		add(exp.Description)
		for _, tech := range exp.Technologies {
			add(e.table.Canonical(tech))
		}
	}
	for _, skill := range profile.Skills.All() {
		add(e.table.Canonical(skill))
	}
	for _, project := range profile.Projects {
		add(project.Description)
		for _, tech := range project.Technologies {
			add(e.table.Canonical(tech))
		}
	}
	add(profile.Summary)
	return set
}

// matchExperience mixes the "meets minimum" component with keyword relevance so
// that tenure alone does not produce a high score.
func (e *Engine) matchExperience(req *model.RequirementProfile, profile *model.CandidateProfile) model.Dimension {
	evidence := []string{}
	years := profile.TotalExperienceYears
	minimum := req.MinExperienceYears

	meets := float64(neutralScore)
	meetsDefault := minimum <= 0
	switch {
	case meetsDefault:
		evidence = append(evidence, "no minimum experience required")
	case years >= minimum:
		evidence = append(evidence, fmt.Sprintf("%.1f years of experience meets the %.1f year minimum", years, minimum))
	default:
		meets = clamp(years / minimum * 100)
		evidence = append(evidence, fmt.Sprintf("%.1f years of experience below the %.1f year minimum", years, minimum))
	}

	wanted := e.requirementKeywords(req)
	relevance := float64(neutralScore)
	relevanceDefault := len(wanted) == 0
	if !relevanceDefault {
		have := e.candidateKeywords(profile)
		hits := 0
		for kw := range wanted {
			if _, ok := have[kw]; ok {
				hits++
			}
		}
		relevance = float64(hits) / float64(len(wanted)) * 100
		evidence = append(evidence, fmt.Sprintf("%d of %d requirement keywords found in experience", hits, len(wanted)))
	}

	r := e.cfg.RelevanceWeight
	return model.Dimension{
		Score:    clamp((1-r)*meets + r*relevance),
		Default:  meetsDefault && relevanceDefault,
		Evidence: evidence,
	}
}
