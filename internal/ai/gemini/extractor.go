package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	_ "embed"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/model"
)

//go:embed extract_prompt.md
var extractPrompt string

//go:embed candidate_schema.json
var candidateSchemaSource string

var candidateSchema = mustSchema(candidateSchemaSource)

const extractSystem = "You are a precise resume parser. You read candidate documents and report their content as structured JSON."

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Extractor implements ai.Extractor with a Gemini model.
type Extractor struct {
	generator jsonGenerator
	logger    *zap.Logger
	now       func() time.Time
}

func NewExtractor(generator jsonGenerator, log *zap.Logger) *Extractor {
	return &Extractor{
		generator: generator,
		logger:    logger.ForAdapter(log, ai.KindExtraction, Provider, ""),
		now:       time.Now,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc model.Document) (*model.CandidateProfile, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, ai.InvalidInput(errors.New("document is empty"))
	}

	prompt := buildPrompt(extractPrompt, map[string]string{"DOCUMENT": doc.Content})
	raw, err := e.generator.GenerateJSON(ctx, extractSystem, prompt)
	if err != nil {
		return nil, err
	}

	cleaned, data, err := parseDocument(raw, candidateSchema)
	if err != nil {
		return nil, err
	}
	liftNamed(data, "certifications", "name")

	var profile model.CandidateProfile
	if err := decodeInto(data, &profile); err != nil {
		return nil, err
	}
	profile.ID = doc.ID
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Normalize(e.now())

	e.logger.Debug("profile extracted",
		zap.String(logger.FieldCandidateID, doc.ID),
		zap.Int64("experience_entries", gjson.Get(cleaned, "experience.#").Int()),
		zap.Int64("technical_skills", gjson.Get(cleaned, "skills.technical.#").Int()),
		zap.Float64("total_experience_years", profile.TotalExperienceYears),
	)

	return &profile, nil
}

// liftNamed replaces bare strings in data[key] with {field: string}.
func liftNamed(data map[string]any, key, field string) {
	items, ok := data[key].([]any)
	if !ok {
		return
	}
	for i, item := range items {
		if s, ok := item.(string); ok {
			items[i] = map[string]any{field: s}
		}
	}
}
