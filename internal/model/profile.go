package model

import (
	"math"
	"strings"
	"time"
)

// Document is a candidate document handed to the extractor.
type Document struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Experience is a single employment entry.
type Experience struct {
	Company        string   `json:"company" mapstructure:"company"`
	Role           string   `json:"role" mapstructure:"role"`
	StartDate      string   `json:"start_date,omitempty" mapstructure:"start_date"`
	EndDate        string   `json:"end_date,omitempty" mapstructure:"end_date"`
	DurationMonths int      `json:"duration_months" mapstructure:"duration_months"`
	Description    string   `json:"description,omitempty" mapstructure:"description"`
	Industry       string   `json:"industry,omitempty" mapstructure:"industry"`
	Technologies   []string `json:"technologies,omitempty" mapstructure:"technologies"`
}

type Education struct {
	Institution    string `json:"institution" mapstructure:"institution"`
	Degree         string `json:"degree" mapstructure:"degree"`
	Field          string `json:"field,omitempty" mapstructure:"field"`
	GraduationYear int    `json:"graduation_year,omitempty" mapstructure:"graduation_year"`
}

type Skills struct {
	Technical []string `json:"technical,omitempty" mapstructure:"technical"`
	Soft      []string `json:"soft,omitempty" mapstructure:"soft"`
	Tools     []string `json:"tools,omitempty" mapstructure:"tools"`
	Languages []string `json:"languages,omitempty" mapstructure:"languages"`
}

// All returns every skill of the set in declaration order.
func (s Skills) All() []string {
	all := make([]string, 0, len(s.Technical)+len(s.Soft)+len(s.Tools)+len(s.Languages))
	all = append(all, s.Technical...)
	all = append(all, s.Tools...)
	all = append(all, s.Soft...)
	all = append(all, s.Languages...)
	return all
}

type Certification struct {
	Name   string `json:"name" mapstructure:"name"`
	Issuer string `json:"issuer,omitempty" mapstructure:"issuer"`
	Date   string `json:"date,omitempty" mapstructure:"date"`
}

type Project struct {
	Name         string   `json:"name" mapstructure:"name"`
	Description  string   `json:"description,omitempty" mapstructure:"description"`
	Technologies []string `json:"technologies,omitempty" mapstructure:"technologies"`
}

// CandidateProfile is the structured form of one candidate document.
// It is never modified after extraction.
type CandidateProfile struct {
	ID                   string          `json:"id" mapstructure:"id"`
	Name                 string          `json:"name" mapstructure:"name"`
	Email                string          `json:"email,omitempty" mapstructure:"email"`
	Phone                string          `json:"phone,omitempty" mapstructure:"phone"`
	Location             string          `json:"location,omitempty" mapstructure:"location"`
	Summary              string          `json:"summary,omitempty" mapstructure:"summary"`
	Experience           []Experience    `json:"experience,omitempty" mapstructure:"experience"`
	Education            []Education     `json:"education,omitempty" mapstructure:"education"`
	Skills               Skills          `json:"skills" mapstructure:"skills"`
	Certifications       []Certification `json:"certifications,omitempty" mapstructure:"certifications"`
	Projects             []Project       `json:"projects,omitempty" mapstructure:"projects"`
	Industries           []string        `json:"industries,omitempty" mapstructure:"industries"`
	TotalExperienceYears float64         `json:"total_experience_years" mapstructure:"total_experience_years"`
}

var presentMarkers = map[string]struct{}{
	"":        {},
	"present": {},
	"current": {},
	"now":     {},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

// ParseDate parses the loose date formats produced by extractors.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthsBetween returns the number of whole months between start and end.
// An end of "present", "current", "now" or empty means now.
func MonthsBetween(start, end string, now time.Time) int {
	from, ok := ParseDate(start)
	if !ok {
		return 0
	}

	to := now
	if _, open := presentMarkers[strings.ToLower(strings.TrimSpace(end))]; !open {
		parsed, ok := ParseDate(end)
		if !ok {
			return 0
		}
		to = parsed
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if months < 0 {
		return 0
	}
	return months
}

// Normalize fills derived fields: entry durations and total experience years.
func (p *CandidateProfile) Normalize(now time.Time) {
	total := 0
	for i := range p.Experience {
		entry := &p.Experience[i]
		if entry.DurationMonths <= 0 {
			entry.DurationMonths = MonthsBetween(entry.StartDate, entry.EndDate, now)
		}
		total += entry.DurationMonths
	}

	if total > 0 {
		p.TotalExperienceYears = math.Round(float64(total)/12*10) / 10
	}
	if p.TotalExperienceYears < 0 {
		p.TotalExperienceYears = 0
	}
}

// Usable reports whether the profile carries enough data to be matched.
func (p *CandidateProfile) Usable() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.Name) != "" ||
		len(p.Experience) > 0 ||
		len(p.Skills.All()) > 0 ||
		len(p.Education) > 0
}
