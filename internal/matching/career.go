package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

const careerWindow = 5

var (
	seniorRoleKeywords = []string{"senior", "lead", "principal", "architect", "director", "manager", "head"}
	midRoleKeywords    = []string{"engineer", "developer", "analyst", "consultant"}
)

func roleLevel(role string) int {
	role = strings.ToLower(role)
	for _, kw := range seniorRoleKeywords {
		if strings.Contains(role, kw) {
			return 3
		}
	}
	for _, kw := range midRoleKeywords {
		if strings.Contains(role, kw) {
			return 2
		}
	}
	return 1
}

// careerTrajectory scores role progression over the most recent entries, which
// are expected first, plus a small company diversity adjustment.
func careerTrajectory(profile *model.CandidateProfile) model.Dimension {
	entries := profile.Experience
	if len(entries) < 2 {
		return model.Dimension{
			Score:    75,
			Default:  true,
			Evidence: []string{"not enough roles to judge progression"},
		}
	}
	if len(entries) > careerWindow {
		entries = entries[:careerWindow]
	}

	evidence := []string{}
	latest, earliest := roleLevel(entries[0].Role), roleLevel(entries[len(entries)-1].Role)
	score := 85.0
	if latest >= earliest {
		evidence = append(evidence, "role level progressed or held")
	} else {
		score = 60
		evidence = append(evidence, "role level regressed")
	}

	companies := make(map[string]struct{})
	for _, entry := range entries {
		if name := skills.Normalize(entry.Company); name != "" {
			companies[name] = struct{}{}
		}
	}
	switch n := len(companies); {
	case n >= 2 && n <= 4:
		score += 10
		evidence = append(evidence, fmt.Sprintf("%d companies in recent history", n))
	case n > 4:
		score -= 5
		evidence = append(evidence, fmt.Sprintf("%d companies in recent history", n))
	}

	return model.Dimension{Score: clamp(score), Evidence: evidence}
}
