// Package pipeline drives ranking jobs: requirement analysis and candidate
// extraction fan out over a bounded worker pool, matching starts per
// candidate once both profiles exist, and scoring and ranking run after a
// barrier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/logger"
	"github.com/spigell/cv-ranker/internal/matching"
	"github.com/spigell/cv-ranker/internal/metrics"
	"github.com/spigell/cv-ranker/internal/model"
	"github.com/spigell/cv-ranker/internal/scoring"
	"github.com/spigell/cv-ranker/internal/skills"
	"github.com/spigell/cv-ranker/internal/store"
)

// Dependencies are the collaborators of an Orchestrator. Extractor and
// Analyzer are required; the rest is optional.
type Dependencies struct {
	Extractor ai.Extractor
	Analyzer  ai.Analyzer
	// Fallbacks are used only while the primary adapter's breaker is open.
	FallbackExtractor ai.Extractor
	FallbackAnalyzer  ai.Analyzer
	Semantic          matching.SemanticScorer

	Skills  *skills.Table
	Store   store.Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Submission is one ranking request.
type Submission struct {
	RequirementText string
	Documents       []model.Document
	// Overrides holds per-job settings, see Overrides for the accepted keys.
	Overrides map[string]any
}

type Orchestrator struct {
	cfg  Config
	deps Dependencies

	matcher *matching.Engine
	scorer  *scoring.Engine

	extraction *breaker
	analysis   *breaker
	similarity *breaker

	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Extractor == nil || deps.Analyzer == nil {
		return nil, errors.New("extractor and analyzer are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemory()
	}
	if deps.Skills == nil {
		deps.Skills = skills.Default()
	}

	o := &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		scorer: scoring.New(cfg.Scoring),
		logger: deps.Logger,
		now:    time.Now,
		jobs:   make(map[string]*job),
	}
	o.extraction = newBreaker(ai.KindExtraction, cfg.Breaker, deps.Metrics, deps.Logger)
	o.analysis = newBreaker(ai.KindAnalysis, cfg.Breaker, deps.Metrics, deps.Logger)
	o.similarity = newBreaker(ai.KindSimilarity, cfg.Breaker, deps.Metrics, deps.Logger)

	var semantic matching.SemanticScorer
	if deps.Semantic != nil {
		semantic = &guardedSemantic{inner: deps.Semantic, o: o}
	}
	o.matcher = matching.New(cfg.Matching, deps.Skills, semantic, deps.Logger)

	return o, nil
}

// Submit validates the submission, registers the job and starts it in the
// background. The job does not inherit ctx cancellation.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (string, error) {
	text := strings.TrimSpace(sub.RequirementText)
	if text == "" {
		return "", invalidSubmission("requirement text is empty")
	}
	if len(sub.Documents) == 0 {
		return "", invalidSubmission("no candidate documents")
	}

	docs := make([]model.Document, len(sub.Documents))
	seen := make(map[string]struct{}, len(sub.Documents))
	for i, doc := range sub.Documents {
		doc.ID = strings.TrimSpace(doc.ID)
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if _, dup := seen[doc.ID]; dup {
			return "", invalidSubmission(fmt.Sprintf("duplicate document id %q", doc.ID))
		}
		seen[doc.ID] = struct{}{}
		docs[i] = doc
	}

	settings, err := resolveSettings(o.cfg, sub.Overrides)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := newJob(id, text, docs, settings, cancel, logger.ForJob(o.logger, id), o.now)

	o.mu.Lock()
	o.jobs[id] = j
	o.mu.Unlock()

	j.logger.Info("job submitted", zap.Int("candidates", len(docs)))
	o.deps.Metrics.JobStarted()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.run(jobCtx, j)
	}()

	return id, nil
}

// Status returns the current snapshot of a job. It never waits for the pipeline.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	if j := o.lookup(jobID); j != nil {
		return j.Snapshot(), nil
	}

	snapshot, err := o.deps.Store.Load(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return snapshot, nil
}

// Result returns the outcome of a finished job: the result for COMPLETED
// jobs, a *JobFailedError for FAILED ones and ErrJobPending otherwise.
func (o *Orchestrator) Result(ctx context.Context, jobID string) (*model.JobResult, error) {
	snapshot, err := o.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return resultOf(snapshot)
}

func resultOf(snapshot *model.JobSnapshot) (*model.JobResult, error) {
	switch snapshot.State {
	case model.StateCompleted:
		return snapshot.Result, nil
	case model.StateFailed:
		return nil, &JobFailedError{JobID: snapshot.ID, Reason: snapshot.Reason}
	default:
		return nil, ErrJobPending
	}
}

// Cancel signals a running job to stop. The job ends FAILED with reason cancelled.
func (o *Orchestrator) Cancel(jobID string) error {
	if j := o.lookup(jobID); j != nil {
		if j.State().Terminal() {
			return ErrJobFinished
		}
		j.logger.Info("job cancellation requested")
		j.cancel()
		return nil
	}

	if _, err := o.deps.Store.Load(context.Background(), jobID); err == nil {
		return ErrJobFinished
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

// Wait blocks until the job is terminal or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	j := o.lookup(jobID)
	if j == nil {
		return o.Status(ctx, jobID)
	}

	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown cancels every running job and waits for them to finish.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, j := range o.jobs {
		j.cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) lookup(jobID string) *job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jobs[jobID]
}

// complete records the terminal state, persists the snapshot and forgets the
// job once the store holds it. Waiters are released last.
func (o *Orchestrator) complete(j *job, state model.JobState, reason string, result *model.JobResult) {
	if !j.finish(state, reason, result) {
		return
	}
	defer close(j.done)

	j.logger.Info("job finished", zap.String("state", string(state)), zap.String("reason", reason))
	o.deps.Metrics.JobFinished(string(state), reason)
	if result != nil {
		o.deps.Metrics.Candidates(metrics.CandidateRanked, len(result.Ranked))
		o.deps.Metrics.Candidates(metrics.CandidateFiltered, len(result.Filtered))
		o.deps.Metrics.Candidates(metrics.CandidateExcluded, len(result.Excluded))
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.StoreTimeout)
	defer cancel()
	if err := o.deps.Store.Save(ctx, j.Snapshot()); err != nil {
		j.logger.Error("failed to persist job snapshot, keeping it in memory", zap.Error(err))
		return
	}

	o.mu.Lock()
	delete(o.jobs, j.id)
	o.mu.Unlock()
}
