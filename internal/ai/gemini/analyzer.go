package gemini

import (
	"context"
	"errors"
	"strings"

	_ "embed"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/model"
)

//go:embed analyze_prompt.md
var analyzePrompt string

//go:embed requirement_schema.json
var requirementSchemaSource string

var requirementSchema = mustSchema(requirementSchemaSource)

const analyzeSystem = "You are an experienced technical recruiter. You turn job descriptions into structured hiring requirements."

// Analyzer implements ai.Analyzer with a Gemini model.
type Analyzer struct {
	generator jsonGenerator
	logger    *zap.Logger
}

func NewAnalyzer(generator jsonGenerator, log *zap.Logger) *Analyzer {
	return &Analyzer{
		generator: generator,
		logger:    logger.ForAdapter(log, ai.KindAnalysis, Provider, ""),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (*model.RequirementProfile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.InvalidInput(errors.New("job description is empty"))
	}

	prompt := buildPrompt(analyzePrompt, map[string]string{"JOB_DESCRIPTION": text})
	raw, err := a.generator.GenerateJSON(ctx, analyzeSystem, prompt)
	if err != nil {
		return nil, err
	}

	cleaned, data, err := parseDocument(raw, requirementSchema)
	if err != nil {
		return nil, err
	}
	liftNamed(data, "must_have", "skill")
	liftNamed(data, "nice_to_have", "skill")

	var req model.RequirementProfile
	if err := decodeInto(data, &req); err != nil {
		return nil, err
	}
	req.Description = text
	req.ApplyDefaults()

	a.logger.Debug("requirement analyzed",
		zap.String("title", req.Title),
		zap.String("seniority", req.Seniority),
		zap.Int("must_have", len(req.MustHave)),
		zap.Int("nice_to_have", len(req.NiceToHave)),
		zap.Bool("weights_provided", gjson.Get(cleaned, "weights").IsObject()),
	)

	return &req, nil
}
