package model

import (
	"testing"
	"time"
)

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "closed range", start: "2020-01", end: "2022-07", want: 30},
		{name: "present", start: "2023-06", end: "Present", want: 12},
		{name: "empty end", start: "2024-01-10", end: "", want: 5},
		{name: "year only", start: "2019", end: "2021", want: 24},
		{name: "unparseable start", start: "sometime", end: "2021", want: 0},
		{name: "reversed", start: "2022-01", end: "2021-01", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MonthsBetween(tc.start, tc.end, now); got != tc.want {
				t.Fatalf("expected %d months, got %d", tc.want, got)
			}
		})
	}
}

func TestProfileNormalize(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	profile := &CandidateProfile{
		Experience: []Experience{
			{Company: "A", StartDate: "2018-01", EndDate: "2021-01"},
			{Company: "B", DurationMonths: 14},
		},
	}

	profile.Normalize(now)

	if profile.Experience[0].DurationMonths != 36 {
		t.Fatalf("expected derived duration 36, got %d", profile.Experience[0].DurationMonths)
	}
	if profile.TotalExperienceYears != 4.2 {
		t.Fatalf("expected 4.2 years, got %v", profile.TotalExperienceYears)
	}
}

func TestProfileUsable(t *testing.T) {
	var nilProfile *CandidateProfile
	if nilProfile.Usable() {
		t.Fatalf("nil profile must not be usable")
	}
	if (&CandidateProfile{}).Usable() {
		t.Fatalf("empty profile must not be usable")
	}
	if !(&CandidateProfile{Skills: Skills{Tools: []string{"git"}}}).Usable() {
		t.Fatalf("profile with skills must be usable")
	}
}

func TestRequirementApplyDefaults(t *testing.T) {
	req := &RequirementProfile{
		Seniority: "Senior Backend",
		MustHave: []SkillRequirement{
			{Skill: " Go "},
			{Skill: ""},
			{Skill: "Kubernetes", Weight: 3},
		},
		NiceToHave:         []SkillRequirement{{Skill: "Rust"}},
		MinExperienceYears: -1,
	}

	req.ApplyDefaults()

	if req.Seniority != SenioritySenior {
		t.Fatalf("unexpected seniority %q", req.Seniority)
	}
	if len(req.MustHave) != 2 {
		t.Fatalf("expected empty skills to be dropped, got %+v", req.MustHave)
	}
	if req.MustHave[0].Skill != "Go" || req.MustHave[0].Weight != DefaultMustHaveWeight {
		t.Fatalf("unexpected first must-have: %+v", req.MustHave[0])
	}
	if req.MustHave[1].Weight != 1 {
		t.Fatalf("expected weight to be capped at 1, got %v", req.MustHave[1].Weight)
	}
	if req.NiceToHave[0].Weight != DefaultNiceToHaveWeight {
		t.Fatalf("unexpected nice-to-have weight %v", req.NiceToHave[0].Weight)
	}
	if req.MinExperienceYears != 0 {
		t.Fatalf("expected negative minimum to be reset, got %v", req.MinExperienceYears)
	}
}

func TestJobStateTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from JobState
		to   JobState
		want bool
	}{
		{StateInitialized, StateAnalyzingJD, true},
		{StateAnalyzingJD, StateParsing, true},
		{StateParsing, StateAnalyzingJD, false},
		{StateRanking, StateCompleted, true},
		{StateMatching, StateFailed, true},
		{StateCompleted, StateFailed, false},
		{StateFailed, StateCompleted, false},
		{StateInitialized, StateInitialized, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	if sum := DefaultWeights().Sum(); sum < 0.999 || sum > 1.001 {
		t.Fatalf("default weights sum to %v", sum)
	}
}
