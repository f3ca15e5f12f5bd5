package matching

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spigell/cv-ranker/internal/model"
)

// Education levels on an ordered scale.
const (
	LevelNone = iota
	LevelAssociate
	LevelBachelor
	LevelMaster
	LevelDoctorate
)

var levelNames = []string{"none", "associate", "bachelor", "master", "doctorate"}

var degreeTokens = map[string]int{
	"none":          LevelNone,
	"associate":     LevelAssociate,
	"associates":    LevelAssociate,
	"aa":            LevelAssociate,
	"aas":           LevelAssociate,
	"bachelor":      LevelBachelor,
	"bachelors":     LevelBachelor,
	"undergraduate": LevelBachelor,
	"bsc":           LevelBachelor,
	"bs":            LevelBachelor,
	"ba":            LevelBachelor,
	"beng":          LevelBachelor,
	"btech":         LevelBachelor,
	"master":        LevelMaster,
	"masters":       LevelMaster,
	"graduate":      LevelMaster,
	"msc":           LevelMaster,
	"ms":            LevelMaster,
	"ma":            LevelMaster,
	"mba":           LevelMaster,
	"meng":          LevelMaster,
	"mtech":         LevelMaster,
	"phd":           LevelDoctorate,
	"dphil":         LevelDoctorate,
	"doctorate":     LevelDoctorate,
	"doctoral":      LevelDoctorate,
	"doctor":        LevelDoctorate,
}

// DegreeLevel maps a free-form degree string onto the education scale.
// The highest level mentioned wins; unknown strings map to none.
func DegreeLevel(degree string) int {
	level := LevelNone
	for _, l := range degreeLevels(degree) {
		if l > level {
			level = l
		}
	}
	return level
}

// RequiredLevel maps an education requirement onto the education scale.
// Alternatives such as "Bachelor's or Master's" accept the lowest level named.
func RequiredLevel(requirement string) int {
	levels := degreeLevels(requirement)
	if len(levels) == 0 {
		return LevelNone
	}
	level := levels[0]
	for _, l := range levels[1:] {
		if l < level {
			level = l
		}
	}
	return level
}

func degreeLevels(degree string) []int {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, degree)

	var levels []int
	for _, token := range strings.Fields(cleaned) {
		if l, ok := degreeTokens[token]; ok {
			levels = append(levels, l)
		}
	}
	return levels
}

// LevelName returns the display name of an education level.
func LevelName(level int) string {
	if level < 0 || level >= len(levelNames) {
		return levelNames[LevelNone]
	}
	return levelNames[level]
}

func highestDegree(profile *model.CandidateProfile) int {
	level := LevelNone
	for _, edu := range profile.Education {
		if l := DegreeLevel(edu.Degree); l > level {
			level = l
		}
	}
	return level
}

func (e *Engine) matchEducation(req *model.RequirementProfile, profile *model.CandidateProfile, result *model.MatchResult) model.Dimension {
	have := highestDegree(profile)
	want := RequiredLevel(req.EducationLevel)
	result.HighestDegree = LevelName(have)
	result.RequiredDegree = LevelName(want)

	if want == LevelNone {
		return model.Dimension{
			Score:    neutralScore,
			Default:  true,
			Evidence: []string{"no education requirement"},
		}
	}

	if have >= want {
		return model.Dimension{
			Score:    neutralScore,
			Evidence: []string{fmt.Sprintf("%s degree meets %s requirement", LevelName(have), LevelName(want))},
		}
	}

	return model.Dimension{
		Score: clamp(100 - e.cfg.EducationStep*float64(want-have)),
		Evidence: []string{fmt.Sprintf("%s degree is %d level(s) below %s requirement",
			LevelName(have), want-have, LevelName(want))},
	}
}
