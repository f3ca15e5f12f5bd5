package gemini

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/model"
)

type stubGenerator struct {
	output string
	err    error
	system string
	prompt string
}

func (s *stubGenerator) GenerateJSON(_ context.Context, system, prompt string) (string, error) {
	s.system = system
	s.prompt = prompt
	return s.output, s.err
}

const candidateReply = "```json\n" + `{
  "name": "Ada Lovelace",
  "email": "ada@example.com",
  "phone": null,
  "experience": [
    {"company": "Acme", "role": "Senior Engineer", "start_date": "2020-01", "end_date": "present", "technologies": "Go"},
    {"company": "Initech", "role": "Engineer", "start_date": "2018-01", "end_date": "2020-01", "duration_months": "24"}
  ],
  "education": [{"institution": "MIT", "degree": "BSc", "graduation_year": "2017"}],
  "skills": {"technical": ["Go", "Kubernetes"], "soft": ["mentoring"]},
  "certifications": ["CKA", {"name": "AWS SAA", "issuer": "Amazon"}]
}` + "\n```"

func TestExtractorParsesProfile(t *testing.T) {
	generator := &stubGenerator{output: candidateReply}
	extractor := NewExtractor(generator, zap.NewNop())
	extractor.now = func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) }

	profile, err := extractor.Extract(context.Background(), model.Document{ID: "c1", Name: "ada.txt", Content: "Ada resume"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(generator.prompt, "Ada resume") {
		t.Fatalf("document was not placed into the prompt")
	}
	if generator.system != extractSystem {
		t.Fatalf("unexpected system instruction %q", generator.system)
	}

	if profile.ID != "c1" || profile.Name != "Ada Lovelace" || profile.Phone != "" {
		t.Fatalf("unexpected identity: %+v", profile)
	}
	if len(profile.Experience) != 2 {
		t.Fatalf("expected 2 experience entries, got %d", len(profile.Experience))
	}
	if got := profile.Experience[0].Technologies; len(got) != 1 || got[0] != "Go" {
		t.Fatalf("single technology was not lifted to a list: %v", got)
	}
	if profile.Experience[0].DurationMonths != 48 || profile.Experience[1].DurationMonths != 24 {
		t.Fatalf("unexpected durations: %d, %d", profile.Experience[0].DurationMonths, profile.Experience[1].DurationMonths)
	}
	if profile.TotalExperienceYears != 6 {
		t.Fatalf("expected 6 years, got %v", profile.TotalExperienceYears)
	}
	if profile.Education[0].GraduationYear != 2017 {
		t.Fatalf("unexpected graduation year %d", profile.Education[0].GraduationYear)
	}
	if len(profile.Certifications) != 2 || profile.Certifications[0].Name != "CKA" || profile.Certifications[1].Issuer != "Amazon" {
		t.Fatalf("unexpected certifications: %+v", profile.Certifications)
	}
}

func TestExtractorErrors(t *testing.T) {
	tests := []struct {
		name      string
		doc       model.Document
		generator *stubGenerator
		target    error
	}{
		{
			name:      "empty document",
			doc:       model.Document{ID: "c1", Content: "  "},
			generator: &stubGenerator{},
			target:    ai.ErrInvalidInput,
		},
		{
			name:      "malformed json",
			doc:       model.Document{ID: "c1", Content: "text"},
			generator: &stubGenerator{output: `{"name": "Ada"`},
			target:    ai.ErrTransient,
		},
		{
			name:      "schema violation",
			doc:       model.Document{ID: "c1", Content: "text"},
			generator: &stubGenerator{output: `{"experience": "ten years"}`},
			target:    ai.ErrTransient,
		},
		{
			name:      "not an object",
			doc:       model.Document{ID: "c1", Content: "text"},
			generator: &stubGenerator{output: `["Ada"]`},
			target:    ai.ErrTransient,
		},
		{
			name:      "generator failure is passed through",
			doc:       model.Document{ID: "c1", Content: "text"},
			generator: &stubGenerator{err: ai.Transient(errors.New("503"))},
			target:    ai.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(tt.generator, zap.NewNop()).Extract(context.Background(), tt.doc)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestAnalyzerParsesRequirement(t *testing.T) {
	generator := &stubGenerator{output: `{
		"title": "Backend Engineer",
		"seniority": "Senior Software Engineer",
		"must_have": ["Go", {"skill": "Kubernetes", "weight": "0.8"}],
		"nice_to_have": [{"skill": "Terraform"}],
		"min_experience_years": "5",
		"weights": {"skills": 0.5, "experience": 0.3, "education": 0.1, "career": 0.05, "other": 0.05}
	}`}
	analyzer := NewAnalyzer(generator, zap.NewNop())

	req, err := analyzer.Analyze(context.Background(), "  We need a Go engineer.  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Seniority != model.SenioritySenior {
		t.Fatalf("unexpected seniority %q", req.Seniority)
	}
	if len(req.MustHave) != 2 || req.MustHave[0].Weight != model.DefaultMustHaveWeight || req.MustHave[1].Weight != 0.8 {
		t.Fatalf("unexpected must-have: %+v", req.MustHave)
	}
	if len(req.NiceToHave) != 1 || req.NiceToHave[0].Weight != model.DefaultNiceToHaveWeight {
		t.Fatalf("unexpected nice-to-have: %+v", req.NiceToHave)
	}
	if req.MinExperienceYears != 5 {
		t.Fatalf("unexpected min years %v", req.MinExperienceYears)
	}
	if req.Weights.Skills != 0.5 {
		t.Fatalf("unexpected weights %+v", req.Weights)
	}
	if req.Description != "We need a Go engineer." {
		t.Fatalf("unexpected description %q", req.Description)
	}
	if req.Neutral {
		t.Fatalf("analyzed profile must not be neutral")
	}
}

func TestAnalyzerRejectsEmptyText(t *testing.T) {
	_, err := NewAnalyzer(&stubGenerator{}, zap.NewNop()).Analyze(context.Background(), " ")
	if !errors.Is(err, ai.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

type stubEmbedder struct {
	vectors map[string][]float32
	calls   map[string]int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls[text]++
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return nil, ai.InvalidInput(errors.New("unknown text"))
}

func TestSimilarityCachesRequirement(t *testing.T) {
	req := &model.RequirementProfile{Title: "Go engineer"}
	same := &model.CandidateProfile{ID: "c1", Summary: "same"}
	opposite := &model.CandidateProfile{ID: "c2", Summary: "opposite"}
	diagonal := &model.CandidateProfile{ID: "c3", Summary: "diagonal"}

	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			"Go engineer\n": {1, 0},
			"same\n":        {2, 0},
			"opposite\n":    {-1, 0},
			"diagonal\n":    {1, 1},
		},
		calls: map[string]int{},
	}
	similarity := NewSimilarity(embedder, zap.NewNop())

	tests := []struct {
		profile *model.CandidateProfile
		expect  float64
	}{
		{profile: same, expect: 100},
		{profile: opposite, expect: 0},
		{profile: diagonal, expect: 100 / math.Sqrt2},
	}
	for _, tt := range tests {
		got, err := similarity.Similarity(context.Background(), req, tt.profile)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.profile.ID, err)
		}
		if math.Abs(got-tt.expect) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", tt.profile.ID, tt.expect, got)
		}
	}

	if embedder.calls["Go engineer\n"] != 1 {
		t.Fatalf("expected requirement to be embedded once, got %d", embedder.calls["Go engineer\n"])
	}
}

func TestSimilarityCacheIsBounded(t *testing.T) {
	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			"first\n":  {1, 0},
			"second\n": {0, 1},
			"third\n":  {1, 1},
			"resume\n": {1, 0},
		},
		calls: map[string]int{},
	}
	similarity := NewSimilarity(embedder, zap.NewNop())
	similarity.limit = 2

	profile := &model.CandidateProfile{ID: "c1", Summary: "resume"}
	for _, title := range []string{"first", "second", "third", "third", "first"} {
		if _, err := similarity.Similarity(context.Background(), &model.RequirementProfile{Title: title}, profile); err != nil {
			t.Fatalf("%s: unexpected error: %v", title, err)
		}
	}

	if len(similarity.cache) != 2 || len(similarity.order) != 2 {
		t.Fatalf("expected 2 cached requirements, got %d", len(similarity.cache))
	}
	if embedder.calls["third\n"] != 1 {
		t.Fatalf("expected a cached requirement to be reused, got %d calls", embedder.calls["third\n"])
	}
	if embedder.calls["first\n"] != 2 {
		t.Fatalf("expected the evicted requirement to be embedded again, got %d calls", embedder.calls["first\n"])
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	if _, err := cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ai.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
