package matching

import (
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

// matchIndustry compares requirement industry tags with the candidate's industries
// and the text of past roles and projects.
func matchIndustry(req *model.RequirementProfile, profile *model.CandidateProfile) model.Dimension {
	tags := make([]string, 0, len(req.Industries))
	for _, tag := range req.Industries {
		if n := skills.Normalize(tag); n != "" {
			tags = append(tags, n)
		}
	}
	if len(tags) == 0 {
		return model.Dimension{
			Score:    neutralScore,
			Default:  true,
			Evidence: []string{"no industry constraint"},
		}
	}

	declared := make([]string, 0, len(profile.Industries)+len(profile.Experience))
	for _, industry := range profile.Industries {
		declared = append(declared, skills.Normalize(industry))
	}
	texts := make([]string, 0, len(profile.Experience)+len(profile.Projects))
	for _, exp := range profile.Experience {
		if exp.Industry != "" {
			declared = append(declared, skills.Normalize(exp.Industry))
		}
		texts = append(texts, skills.Normalize(exp.Company+" "+exp.Description))
	}
	for _, project := range profile.Projects {
		texts = append(texts, skills.Normalize(project.Name+" "+project.Description))
	}

	matched := 0
	evidence := []string{}
	for _, tag := range tags {
		if industryFound(tag, declared, texts) {
			matched++
			evidence = append(evidence, "industry experience in "+tag)
		} else {
			evidence = append(evidence, "no industry experience in "+tag)
		}
	}

	return model.Dimension{
		Score:    clamp(float64(matched) / float64(len(tags)) * 100),
		Evidence: evidence,
	}
}

func industryFound(tag string, declared, texts []string) bool {
	for _, industry := range declared {
		if industry == tag || skills.TokenOverlap(tag, industry) >= 0.5 {
			return true
		}
	}
	for _, text := range texts {
		if strings.Contains(" "+text+" ", " "+tag+" ") {
			return true
		}
	}
	return false
}
