package filtering

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-ranker/internal/model"
)

func score(id string, years, total float64, missingSkills, missingCerts []string) model.CandidateScore {
	return model.CandidateScore{
		CandidateID: id,
		Total:       total,
		Match: model.MatchResult{
			CandidateID:           id,
			CandidateYears:        years,
			MissingSkills:         missingSkills,
			MissingCertifications: missingCerts,
		},
	}
}

func TestMinimumExperienceFilter(t *testing.T) {
	candidates := NewCandidates([]model.CandidateScore{
		score("junior", 2, 60, nil, nil),
		score("senior", 7, 80, nil, nil),
	})

	step, err := NewMinimumExperience(5).Apply(context.Background(), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if step != (Step{Initial: 2, Dropped: 1, Left: 1}) {
		t.Fatalf("unexpected step: %+v", step)
	}
	if candidates.Items[0].CandidateID != "senior" {
		t.Fatalf("unexpected remaining candidate: %s", candidates.Items[0].CandidateID)
	}
	if len(candidates.Filtered) != 1 || candidates.Filtered[0].FilterReason != ReasonBelowMinimumExperience {
		t.Fatalf("expected junior to be filtered with reason, got %+v", candidates.Filtered)
	}
}

func TestMinimumExperienceFilterWithoutRequirement(t *testing.T) {
	candidates := NewCandidates([]model.CandidateScore{score("a", 0, 10, nil, nil)})

	step, err := NewMinimumExperience(0).Apply(context.Background(), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 0 || candidates.Len() != 1 {
		t.Fatalf("expected nothing dropped, got %+v", step)
	}
}

func TestRunFirstFailingFilterWins(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	candidates := NewCandidates([]model.CandidateScore{
		score("a", 1, 90, nil, []string{"CKA"}),
		score("b", 6, 90, nil, []string{"CKA"}),
		score("c", 6, 90, []string{"Go"}, nil),
		score("d", 6, 20, nil, nil),
		score("e", 6, 90, nil, nil),
	})

	f := New([]Filter{
		NewMinimumExperience(5),
		NewRequiredCertifications([]string{"CKA"}),
		NewCriticalSkills([]model.SkillRequirement{{Skill: "Go", Weight: 1}, {Skill: "Rust", Weight: 0.5}}, 0.9),
		NewMinimumScore(30),
	}, zap.New(core))

	steps, err := f.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"a": ReasonBelowMinimumExperience,
		"b": ReasonMissingCertification,
		"c": ReasonMissingCriticalSkill,
		"d": ReasonBelowMinimumScore,
	}
	if len(candidates.Filtered) != len(want) {
		t.Fatalf("expected %d filtered, got %d", len(want), len(candidates.Filtered))
	}
	for _, c := range candidates.Filtered {
		if want[c.CandidateID] != c.FilterReason {
			t.Fatalf("candidate %s: expected %q, got %q", c.CandidateID, want[c.CandidateID], c.FilterReason)
		}
	}
	if candidates.Len() != 1 || candidates.Items[0].CandidateID != "e" {
		t.Fatalf("expected only e to remain")
	}

	if steps["minimum_experience"].Dropped != 1 || steps["minimum_score"].Initial != 2 {
		t.Fatalf("unexpected steps: %+v", steps)
	}

	entries := observed.FilterMessage("filter step").All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 filter step logs, got %d", len(entries))
	}
}

func TestDisabledFiltersAreSkipped(t *testing.T) {
	candidates := NewCandidates([]model.CandidateScore{score("a", 0, 10, []string{"Go"}, nil)})

	f := New([]Filter{
		NewCriticalSkills([]model.SkillRequirement{{Skill: "Go", Weight: 1}}, 0),
		NewMinimumScore(0),
	}, nil)

	steps, err := f.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 0 || candidates.Len() != 1 {
		t.Fatalf("expected disabled filters to be skipped, got %+v", steps)
	}

	for _, status := range f.Describe() {
		if status.Enabled || status.Reason == "" {
			t.Fatalf("expected disabled status with reason, got %+v", status)
		}
	}
}

func TestRunValidatesFilters(t *testing.T) {
	f := New([]Filter{NewMinimumScore(150)}, nil)
	if _, err := f.Run(context.Background(), NewCandidates(nil)); err == nil {
		t.Fatalf("expected validation error")
	}

	minimum := NewMinimumScore(150)
	minimum.Disable("turned off")
	f = New([]Filter{minimum}, nil)
	if _, err := f.Run(context.Background(), NewCandidates(nil)); err != nil {
		t.Fatalf("disabled filter must not be validated: %v", err)
	}
}
