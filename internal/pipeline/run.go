package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/metrics"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/ranking"
	"github.com/spigell/cv-ranker/internal/retry"
	"github.com/spigell/cv-ranker/internal/scoring"
)

// requirementGate publishes the requirement profile to candidate tasks once.
type requirementGate struct {
	ready   chan struct{}
	profile *model.RequirementProfile
	err     error
}

func (o *Orchestrator) run(ctx context.Context, j *job) {
	gate := &requirementGate{ready: make(chan struct{})}
	j.advance(model.StateAnalyzingJD)

	go func() {
		defer close(gate.ready)
		gate.profile, gate.err = o.analyze(ctx, j)
	}()

	var extractions sync.WaitGroup
	extractions.Add(len(j.docs))
	extracted := make(chan struct{})
	go func() {
		extractions.Wait()
		close(extracted)
	}()

	workers := min(len(j.docs), o.cfg.Workers)
	var tasks errgroup.Group
	tasks.SetLimit(workers)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for _, doc := range j.docs {
			if ctx.Err() != nil {
				j.cancelCandidate(doc.ID)
				extractions.Done()
				continue
			}
			tasks.Go(func() error {
				o.candidateTask(ctx, j, doc, gate, &extractions)
				return nil
			})
		}
	}()

	drain := func() {
		<-dispatched
		_ = tasks.Wait()
	}

	select {
	case <-gate.ready:
	case <-ctx.Done():
		<-gate.ready
	}
	if ctx.Err() != nil {
		drain()
		o.complete(j, model.StateFailed, ReasonCancelled, nil)
		return
	}
	if gate.err != nil {
		j.logger.Error("requirement analysis failed", zap.Error(gate.err))
		j.cancel()
		drain()
		o.complete(j, model.StateFailed, ReasonAnalysisFailed, nil)
		return
	}
	j.advance(model.StateParsing)

	<-extracted
	if ctx.Err() != nil {
		drain()
		o.complete(j, model.StateFailed, ReasonCancelled, nil)
		return
	}

	usable := j.usableProfiles()
	ratio := float64(usable) / float64(len(j.docs))
	if ratio < j.settings.minSuccessRatio {
		j.logger.Error("too few candidates produced a usable profile",
			zap.Int("usable", usable),
			zap.Int("candidates", len(j.docs)),
			zap.Float64("min_success_ratio", j.settings.minSuccessRatio),
		)
		j.cancel()
		drain()
		o.complete(j, model.StateFailed, ReasonBelowMinimumSuccess, nil)
		return
	}
	j.advance(model.StateMatching)

	// barrier: every admitted candidate has finished matching or failed
	drain()
	if ctx.Err() != nil {
		o.complete(j, model.StateFailed, ReasonCancelled, nil)
		return
	}

	j.advance(model.StateScoring)
	scores, err := o.score(j, gate.profile)
	if err != nil {
		j.logger.Error("scoring failed", zap.Error(err))
		o.complete(j, model.StateFailed, ReasonNoCandidatesScored, nil)
		return
	}
	if len(scores) == 0 {
		j.logger.Warn("no candidate produced a usable profile, the ranking is empty")
	}

	j.advance(model.StateRanking)
	ranked, err := ranking.New(j.settings.ranking, j.logger).Rank(ctx, gate.profile, scores)
	if err != nil {
		if ctx.Err() != nil {
			o.complete(j, model.StateFailed, ReasonCancelled, nil)
			return
		}
		j.logger.Error("ranking failed", zap.Error(err))
		o.complete(j, model.StateFailed, ReasonNoCandidatesScored, nil)
		return
	}

	result := &model.JobResult{
		Ranked:           ranked.Ranked,
		Filtered:         ranked.Filtered,
		Excluded:         j.excluded(),
		TierDistribution: ranked.TierDistribution,
		Filters:          ranked.Filters,
		Anomalies:        j.Anomalies(),
		Requirement:      *gate.profile,
	}
	o.complete(j, model.StateCompleted, "", result)
}

// candidateTask extracts one document and, once the requirement profile is
// published, matches it.
func (o *Orchestrator) candidateTask(ctx context.Context, j *job, doc model.Document, gate *requirementGate, extractions *sync.WaitGroup) {
	log := logger.ForCandidate(j.logger, doc.ID, doc.Name)

	profile, err := o.extract(ctx, j, doc, log)
	extractions.Done()
	if err != nil {
		if ctx.Err() != nil {
			j.cancelCandidate(doc.ID)
			return
		}
		log.Warn("candidate excluded", zap.Error(err))
		j.failCandidate(doc.ID, phaseExtraction, err)
		return
	}

	select {
	case <-gate.ready:
	case <-ctx.Done():
		j.cancelCandidate(doc.ID)
		return
	}
	if gate.err != nil || ctx.Err() != nil {
		j.cancelCandidate(doc.ID)
		return
	}

	j.setStage(doc.ID, model.StageMatching)
	match := o.matcher.Match(ctx, gate.profile, profile)
	if ctx.Err() != nil {
		j.cancelCandidate(doc.ID)
		return
	}
	j.matched(doc.ID, match)
}

// extract runs the extractor with retries. When the breaker rejects the call
// the fallback extractor, if any, produces a degraded profile.
func (o *Orchestrator) extract(ctx context.Context, j *job, doc model.Document, log *zap.Logger) (*model.CandidateProfile, error) {
	j.setStage(doc.ID, model.StageExtracting)

	calls := 0
	var profile *model.CandidateProfile
	_, err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context, attempt int) error {
		started := time.Now()
		p, err := guard(o.extraction, func() (*model.CandidateProfile, error) {
			return callWithTimeout(ctx, o.cfg.TaskTimeout, func(ctx context.Context) (*model.CandidateProfile, error) {
				return o.deps.Extractor.Extract(ctx, doc)
			})
		})
		if errors.Is(err, ErrCircuitOpen) {
			o.deps.Metrics.Attempt(ai.KindExtraction, metrics.OutcomeCircuitOpen, 0)
			return retry.Permanent(err)
		}

		calls++
		j.setAttempts(doc.ID, calls)
		if err == nil && !p.Usable() {
			err = errors.New("extracted profile has no usable data")
		}
		if err != nil {
			o.deps.Metrics.Attempt(ai.KindExtraction, metrics.OutcomeFailure, time.Since(started))
			log.Debug("extraction attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			if !retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}

		o.deps.Metrics.Attempt(ai.KindExtraction, metrics.OutcomeSuccess, time.Since(started))
		profile = p
		return nil
	})

	degraded := false
	if errors.Is(err, ErrCircuitOpen) && o.deps.FallbackExtractor != nil && ctx.Err() == nil {
		log.Warn("extraction breaker open, using fallback extractor")
		o.deps.Metrics.Attempt(ai.KindExtraction, metrics.OutcomeFallback, 0)
		profile, err = callWithTimeout(ctx, o.cfg.TaskTimeout, func(ctx context.Context) (*model.CandidateProfile, error) {
			return o.deps.FallbackExtractor.Extract(ctx, doc)
		})
		if err == nil && !profile.Usable() {
			err = errors.New("fallback profile has no usable data")
		}
		degraded = err == nil
	}
	if err != nil {
		return nil, &ai.AdapterError{Kind: ai.KindExtraction, Subject: doc.ID, Err: err}
	}

	// the profile is owned by this job from here on
	owned := *profile
	owned.ID = doc.ID
	j.extracted(doc.ID, &owned, degraded)
	return &owned, nil
}

// analyze produces the requirement profile with retries, falling back to the
// neutral profile while the analysis breaker is open.
func (o *Orchestrator) analyze(ctx context.Context, j *job) (*model.RequirementProfile, error) {
	var req *model.RequirementProfile
	_, err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context, attempt int) error {
		started := time.Now()
		r, err := guard(o.analysis, func() (*model.RequirementProfile, error) {
			return callWithTimeout(ctx, o.cfg.AnalysisTimeout, func(ctx context.Context) (*model.RequirementProfile, error) {
				return o.deps.Analyzer.Analyze(ctx, j.requirement)
			})
		})
		if errors.Is(err, ErrCircuitOpen) {
			o.deps.Metrics.Attempt(ai.KindAnalysis, metrics.OutcomeCircuitOpen, 0)
			return retry.Permanent(err)
		}
		if err == nil && r == nil {
			err = errors.New("analyzer returned no profile")
		}
		if err != nil {
			o.deps.Metrics.Attempt(ai.KindAnalysis, metrics.OutcomeFailure, time.Since(started))
			j.logger.Debug("analysis attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			if !retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}

		o.deps.Metrics.Attempt(ai.KindAnalysis, metrics.OutcomeSuccess, time.Since(started))
		req = r
		return nil
	})

	if errors.Is(err, ErrCircuitOpen) && o.deps.FallbackAnalyzer != nil && ctx.Err() == nil {
		o.deps.Metrics.Attempt(ai.KindAnalysis, metrics.OutcomeFallback, 0)
		req, err = o.deps.FallbackAnalyzer.Analyze(ctx, j.requirement)
		if err == nil {
			j.addAnomaly("requirement analysis unavailable, neutral requirement profile used")
		}
	}
	if err != nil {
		return nil, &ai.AdapterError{Kind: ai.KindAnalysis, Err: err}
	}

	owned := *req
	owned.ApplyDefaults()
	return &owned, nil
}

// score resolves the job weights once and scores every matched candidate.
func (o *Orchestrator) score(j *job, req *model.RequirementProfile) ([]model.CandidateScore, error) {
	weights := req.Weights
	if j.settings.weights != nil {
		weights = *j.settings.weights
	}

	resolved, anomalies, err := scoring.ResolveWeights(weights, o.cfg.Weights, o.scorer.Tolerance())
	if err != nil {
		var cfgErr *scoring.ConfigurationError
		if !errors.As(err, &cfgErr) || j.settings.weights != nil {
			return nil, err
		}
		j.addAnomaly("requirement profile weights rejected (%s), defaults applied", cfgErr.Reason)
		resolved, anomalies, err = scoring.ResolveWeights(o.cfg.Weights, o.cfg.Weights, o.scorer.Tolerance())
		if err != nil {
			return nil, fmt.Errorf("default weights: %w", err)
		}
	}
	for _, anomaly := range anomalies {
		j.addAnomaly("%s", anomaly)
	}

	profiles, matches := j.scorable()
	scores := make([]model.CandidateScore, 0, len(matches))
	for i, match := range matches {
		scores = append(scores, o.scorer.Score(profiles[i], req, match, resolved))
	}
	return scores, nil
}

// retryable reports whether another attempt could succeed. Rejected input and
// an unavailable adapter fail the same way every time.
func retryable(err error) bool {
	return !errors.Is(err, ai.ErrInvalidInput) && !errors.Is(err, ai.ErrUnavailable)
}

// guardedSemantic routes semantic similarity calls through the similarity breaker.
type guardedSemantic struct {
	inner matching.SemanticScorer
	o     *Orchestrator
}

func (g *guardedSemantic) Similarity(ctx context.Context, req *model.RequirementProfile, profile *model.CandidateProfile) (float64, error) {
	started := time.Now()
	score, err := guard(g.o.similarity, func() (float64, error) {
		return callWithTimeout(ctx, g.o.cfg.TaskTimeout, func(ctx context.Context) (float64, error) {
			return g.inner.Similarity(ctx, req, profile)
		})
	})

	switch {
	case errors.Is(err, ErrCircuitOpen):
		g.o.deps.Metrics.Attempt(ai.KindSimilarity, metrics.OutcomeCircuitOpen, 0)
	case err != nil:
		g.o.deps.Metrics.Attempt(ai.KindSimilarity, metrics.OutcomeFailure, time.Since(started))
	default:
		g.o.deps.Metrics.Attempt(ai.KindSimilarity, metrics.OutcomeSuccess, time.Since(started))
	}
	return score, err
}
