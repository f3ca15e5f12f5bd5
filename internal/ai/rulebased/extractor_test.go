package rulebased

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/model"
)

const resume = `Grace Hopper
grace@example.com | +1 555 123 4567
Senior Engineer at Acme 2019 - present
Engineer at Initech 2016 - 2019
Over 8 years of experience with Golang, Kubernetes and PostgreSQL.
Master of Science in Computer Science
`

func newTestExtractor() *Extractor {
	e := NewExtractor(nil)
	e.now = func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExtract(t *testing.T) {
	profile, err := newTestExtractor().Extract(context.Background(), model.Document{ID: "c1", Content: resume})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.ID != "c1" || profile.Name != "Grace Hopper" {
		t.Fatalf("unexpected identity: %q %q", profile.ID, profile.Name)
	}
	if profile.Email != "grace@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
	if profile.Phone != "+1 555 123 4567" {
		t.Fatalf("unexpected phone %q", profile.Phone)
	}

	wantSkills := []string{"go", "kubernetes", "postgresql"}
	if !reflect.DeepEqual(profile.Skills.Technical, wantSkills) {
		t.Fatalf("expected skills %v, got %v", wantSkills, profile.Skills.Technical)
	}

	if len(profile.Education) != 1 || profile.Education[0].Degree != "master" {
		t.Fatalf("unexpected education: %+v", profile.Education)
	}

	if len(profile.Experience) != 2 {
		t.Fatalf("expected 2 experience entries, got %+v", profile.Experience)
	}
	first := profile.Experience[0]
	if first.Role != "Senior Engineer at Acme" || first.StartDate != "2019" || first.EndDate != "present" || first.DurationMonths != 60 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if profile.TotalExperienceYears != 8 {
		t.Fatalf("expected 8 years, got %v", profile.TotalExperienceYears)
	}
	if !profile.Usable() {
		t.Fatalf("expected usable profile")
	}
}

func TestExtractStatedYears(t *testing.T) {
	profile, err := newTestExtractor().Extract(context.Background(), model.Document{
		ID:      "c2",
		Content: "Jane Doe\n12+ years building Python services",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.TotalExperienceYears != 12 {
		t.Fatalf("expected stated years to be used, got %v", profile.TotalExperienceYears)
	}
	if !reflect.DeepEqual(profile.Skills.Technical, []string{"python"}) {
		t.Fatalf("unexpected skills %v", profile.Skills.Technical)
	}
	if profile.Phone != "" {
		t.Fatalf("unexpected phone %q", profile.Phone)
	}
}

func TestExtractErrors(t *testing.T) {
	extractor := newTestExtractor()

	if _, err := extractor.Extract(context.Background(), model.Document{ID: "c3", Content: "  \n "}); !errors.Is(err, ai.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := extractor.Extract(ctx, model.Document{ID: "c4", Content: resume}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestNeutralAnalyzer(t *testing.T) {
	req, err := NeutralAnalyzer().Analyze(context.Background(), " Go developer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Neutral || req.Description != "Go developer" || len(req.MustHave) != 0 {
		t.Fatalf("unexpected neutral profile: %+v", req)
	}
	if req.Weights != model.DefaultWeights() {
		t.Fatalf("expected default weights, got %+v", req.Weights)
	}
}
