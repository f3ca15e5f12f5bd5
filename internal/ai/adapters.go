// Package ai defines the external adapters the pipeline calls: profile
// extraction, requirement analysis and semantic similarity.
package ai

import (
	"context"

	"github.com/spigell/cv-ranker/internal/model"
)

// Extractor turns one candidate document into a structured profile.
// Implementations must be idempotent and side-effect free.
type Extractor interface {
	Extract(ctx context.Context, doc model.Document) (*model.CandidateProfile, error)
}

// Analyzer turns a job description into a requirement profile.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*model.RequirementProfile, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text string) (*model.RequirementProfile, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, text string) (*model.RequirementProfile, error) {
	return f(ctx, text)
}
