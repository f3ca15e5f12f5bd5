package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

// candidateSkills collects the canonical skills of a profile from every section.
func (e *Engine) candidateSkills(profile *model.CandidateProfile) []string {
	seen := make(map[string]struct{})
	add := func(values []string) {
		for _, value := range values {
			c := e.table.Canonical(value)
			if c == "" {
				continue
			}
			seen[c] = struct{}{}
		}
	}

	add(profile.Skills.All())
	for _, exp := range profile.Experience {
		add(exp.Technologies)
	}
	for _, project := range profile.Projects {
		add(project.Technologies)
	}

	out := make([]string, 0, len(seen))
	for skill := range seen {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// findSkill looks for req among the candidate skills. Exact canonical matches win;
// otherwise the first related skill in sorted order is used.
func (e *Engine) findSkill(req string, have []string, haveSet map[string]struct{}) (string, string, bool) {
	canonical := e.table.Canonical(req)
	if canonical == "" {
		return "", "", false
	}
	if _, ok := haveSet[canonical]; ok {
		return canonical, model.MatchExact, true
	}
	for _, skill := range have {
		if e.table.Related(canonical, skill) || skills.TokenOverlap(canonical, skill) > e.cfg.TokenOverlap {
			return skill, model.MatchRelated, true
		}
	}
	return "", "", false
}

func (e *Engine) matchSkills(req *model.RequirementProfile, profile *model.CandidateProfile, result *model.MatchResult) {
	have := e.candidateSkills(profile)
	haveSet := make(map[string]struct{}, len(have))
	for _, skill := range have {
		haveSet[skill] = struct{}{}
	}
	used := make(map[string]struct{})

	var total, satisfied float64
	evidence := []string{}

	check := func(reqs []model.SkillRequirement, required bool) {
		for _, r := range reqs {
			total += r.Weight
			matchedBy, kind, ok := e.findSkill(r.Skill, have, haveSet)
			if !ok {
				if required {
					result.MissingSkills = append(result.MissingSkills, r.Skill)
					evidence = append(evidence, fmt.Sprintf("missing required skill %s", r.Skill))
				} else {
					result.MissingNiceToHave = append(result.MissingNiceToHave, r.Skill)
				}
				continue
			}

			credit := 1.0
			if kind == model.MatchRelated {
				credit = e.cfg.RelatedCredit
				evidence = append(evidence, fmt.Sprintf("%s covered by related skill %s", r.Skill, matchedBy))
			} else {
				evidence = append(evidence, fmt.Sprintf("has %s", r.Skill))
			}
			used[matchedBy] = struct{}{}
			satisfied += r.Weight * credit

			result.MatchedSkills = append(result.MatchedSkills, model.SkillMatch{
				Skill:     r.Skill,
				MatchedBy: matchedBy,
				Kind:      kind,
				Required:  required,
				Weight:    r.Weight,
				Credit:    credit,
			})
		}
	}

	check(req.MustHave, true)
	check(req.NiceToHave, false)

	for _, skill := range have {
		if len(result.ExtraSkills) >= e.cfg.MaxExtraSkills {
			break
		}
		if _, ok := used[skill]; ok {
			continue
		}
		result.ExtraSkills = append(result.ExtraSkills, skill)
	}

	if total <= 0 {
		result.Skills = model.Dimension{
			Score:    neutralScore,
			Default:  true,
			Evidence: []string{"no skills required"},
		}
		return
	}

	result.Skills = model.Dimension{
		Score:    clamp(satisfied / total * 100),
		Evidence: evidence,
	}
}

func (e *Engine) missingCertifications(req *model.RequirementProfile, profile *model.CandidateProfile) []string {
	missing := []string{}
	for _, want := range req.Certifications {
		wanted := skills.Normalize(want)
		if wanted == "" {
			continue
		}
		found := false
		for _, cert := range profile.Certifications {
			have := skills.Normalize(cert.Name)
			if have == wanted || strings.Contains(have, wanted) || skills.TokenOverlap(wanted, have) > e.cfg.TokenOverlap {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}
