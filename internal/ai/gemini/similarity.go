package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/model"
)

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// maxCachedRequirements bounds the requirement embedding cache. The oldest
// entry is evicted first.
const maxCachedRequirements = 64

// Similarity scores candidates against a requirement by embedding cosine
// similarity. Requirement embeddings are cached by content hash, so one job
// embeds its requirement once.
type Similarity struct {
	embedder embedder
	logger   *zap.Logger

	mu    sync.RWMutex
	limit int
	cache map[string][]float32
	order []string
}

func NewSimilarity(embedder embedder, log *zap.Logger) *Similarity {
	return &Similarity{
		embedder: embedder,
		logger:   logger.ForAdapter(log, ai.KindSimilarity, Provider, ""),
		limit:    maxCachedRequirements,
		cache:    make(map[string][]float32),
	}
}

// Similarity returns a score in [0,100]. Negative cosine values count as 0.
func (s *Similarity) Similarity(ctx context.Context, req *model.RequirementProfile, profile *model.CandidateProfile) (float64, error) {
	if req == nil || profile == nil {
		return 0, ai.InvalidInput(errors.New("requirement and profile are required"))
	}

	reqVec, err := s.requirementEmbedding(ctx, requirementText(req))
	if err != nil {
		return 0, err
	}
	candidateVec, err := s.embedder.Embed(ctx, profileText(profile))
	if err != nil {
		return 0, err
	}

	cos, err := cosine(reqVec, candidateVec)
	if err != nil {
		return 0, err
	}
	score := math.Max(0, cos) * 100

	s.logger.Debug("semantic similarity computed",
		zap.String(logger.FieldCandidateID, profile.ID),
		zap.Float64("score", score),
	)
	return score, nil
}

func (s *Similarity) requirementEmbedding(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[key]; ok {
		return existing, nil
	}
	if len(s.order) >= s.limit {
		delete(s.cache, s.order[0])
		s.order = s.order[1:]
	}
	s.cache[key] = vec
	s.order = append(s.order, key)
	return vec, nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, ai.Transient(fmt.Errorf("embedding dimensions differ: %d and %d", len(a), len(b)))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func requirementText(req *model.RequirementProfile) string {
	var b strings.Builder
	writeLine(&b, req.Title)
	for _, skill := range req.MustHave {
		writeLine(&b, skill.Skill)
	}
	for _, skill := range req.NiceToHave {
		writeLine(&b, skill.Skill)
	}
	for _, item := range req.Responsibilities {
		writeLine(&b, item)
	}
	if b.Len() == 0 {
		writeLine(&b, req.Description)
	}
	return b.String()
}

func profileText(p *model.CandidateProfile) string {
	var b strings.Builder
	writeLine(&b, p.Summary)
	for _, entry := range p.Experience {
		writeLine(&b, entry.Role)
		writeLine(&b, entry.Description)
	}
	writeLine(&b, strings.Join(p.Skills.All(), ", "))
	for _, project := range p.Projects {
		writeLine(&b, project.Description)
	}
	if b.Len() == 0 {
		writeLine(&b, p.Name)
	}
	return b.String()
}

func writeLine(b *strings.Builder, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString(value)
	b.WriteByte('\n')
}
