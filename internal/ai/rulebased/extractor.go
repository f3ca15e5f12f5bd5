// Package rulebased holds the degraded adapters used when the model-backed
// ones are unavailable. They never call the network.
package rulebased

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/skills"
)

const (
	maxNameWords    = 5
	maxDegreeLine   = 160
	maxStatedYears  = 50
	maxSummaryRunes = 300
	minPhoneDigits  = 10
)

var (
	emailRe = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	yearsRe = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d)?)\s*\+?\s*(?:years?|yrs?)\b`)
	rangeRe = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:-|\x{2013}|\x{2014}|to)\s*((?:19|20)\d{2}|present|current|now)\b`)
)

// Extractor finds contact details, skills, degrees and experience
// statements with regular expressions and the skill lookup table.
type Extractor struct {
	table *skills.Table
	now   func() time.Time
}

func NewExtractor(table *skills.Table) *Extractor {
	if table == nil {
		table = skills.Default()
	}
	return &Extractor{table: table, now: time.Now}
}

func (e *Extractor) Extract(ctx context.Context, doc model.Document) (*model.CandidateProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, ai.InvalidInput(errors.New("document is empty"))
	}

	lines := nonEmptyLines(doc.Content)
	profile := &model.CandidateProfile{
		ID:    doc.ID,
		Name:  guessName(lines),
		Email: emailRe.FindString(doc.Content),
	}
	profile.Phone = findPhone(doc.Content)
	profile.Summary = summary(lines)
	profile.Skills.Technical = e.findSkills(doc.Content)
	profile.Education = findDegrees(lines)
	profile.Experience = findRanges(lines)

	profile.Normalize(e.now())
	if stated := statedYears(doc.Content); stated > profile.TotalExperienceYears {
		profile.TotalExperienceYears = stated
	}

	return profile, nil
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// guessName takes the first short line without contact details.
func guessName(lines []string) string {
	for _, line := range lines {
		if emailRe.MatchString(line) || findPhone(line) != "" {
			continue
		}
		words := strings.Fields(line)
		if len(words) == 0 || len(words) > maxNameWords {
			return ""
		}
		return line
	}
	return ""
}

// findPhone returns the first number-like run with at least ten digits that is not a year range.
func findPhone(text string) string {
	for _, candidate := range phoneRe.FindAllString(text, -1) {
		if rangeRe.MatchString(candidate) {
			continue
		}
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= minPhoneDigits {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

func summary(lines []string) string {
	var parts []string
	length := 0
	for _, line := range lines[min(1, len(lines)):] {
		parts = append(parts, line)
		length += len([]rune(line))
		if length >= maxSummaryRunes {
			break
		}
	}
	text := []rune(strings.Join(parts, " "))
	if len(text) > maxSummaryRunes {
		text = text[:maxSummaryRunes]
	}
	return strings.TrimSpace(string(text))
}

func (e *Extractor) findSkills(text string) []string {
	tokens := strings.Fields(skills.Normalize(text))
	for i, token := range tokens {
		tokens[i] = strings.TrimRight(token, ".")
	}
	padded := " " + strings.Join(tokens, " ") + " "

	found := make(map[string]struct{})
	for _, known := range e.table.Known() {
		if strings.Contains(padded, " "+known+" ") {
			found[e.table.Canonical(known)] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for skill := range found {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

func findDegrees(lines []string) []model.Education {
	var out []model.Education
	for _, line := range lines {
		if len(line) > maxDegreeLine {
			continue
		}
		level := matching.DegreeLevel(line)
		if level == matching.LevelNone {
			continue
		}
		out = append(out, model.Education{
			Institution: line,
			Degree:      matching.LevelName(level),
		})
	}
	return out
}

func findRanges(lines []string) []model.Experience {
	var out []model.Experience
	for _, line := range lines {
		match := rangeRe.FindStringSubmatchIndex(line)
		if match == nil {
			continue
		}
		role := strings.TrimSpace(strings.Trim(line[:match[0]]+" "+line[match[1]:], " ,|()-"))
		out = append(out, model.Experience{
			Role:      role,
			StartDate: line[match[2]:match[3]],
			EndDate:   strings.ToLower(line[match[4]:match[5]]),
		})
	}
	return out
}

func statedYears(text string) float64 {
	best := 0.0
	for _, match := range yearsRe.FindAllStringSubmatch(text, -1) {
		years, err := strconv.ParseFloat(match[1], 64)
		if err != nil || years > maxStatedYears {
			continue
		}
		if years > best {
			best = years
		}
	}
	return best
}

// NeutralAnalyzer returns the neutral requirement profile for any text.
func NeutralAnalyzer() ai.Analyzer {
	return ai.AnalyzerFunc(func(ctx context.Context, text string) (*model.RequirementProfile, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return model.NeutralRequirement(strings.TrimSpace(text)), nil
	})
}
