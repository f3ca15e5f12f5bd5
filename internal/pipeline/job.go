package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/model"
)

// phaseExtraction is recorded for candidates excluded before matching.
const phaseExtraction = "extraction"

// job is the aggregate of one ranking run. Candidate tasks touch it only
// through its locked methods, one update per step.
type job struct {
	id          string
	requirement string
	docs        []model.Document
	settings    jobSettings

	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     model.JobState
	reason    string
	statuses  []model.CandidateStatus
	index     map[string]int
	failedIn  map[string]string
	profiles  map[string]*model.CandidateProfile
	matches   map[string]model.MatchResult
	anomalies []string
	result    *model.JobResult
	createdAt time.Time
	updatedAt time.Time
}

func newJob(id, requirement string, docs []model.Document, settings jobSettings, cancel context.CancelFunc, logger *zap.Logger, now func() time.Time) *job {
	created := now()
	j := &job{
		id:          id,
		requirement: requirement,
		docs:        docs,
		settings:    settings,
		cancel:      cancel,
		done:        make(chan struct{}),
		logger:      logger,
		now:         now,
		state:       model.StateInitialized,
		statuses:    make([]model.CandidateStatus, len(docs)),
		index:       make(map[string]int, len(docs)),
		failedIn:    make(map[string]string),
		profiles:    make(map[string]*model.CandidateProfile, len(docs)),
		matches:     make(map[string]model.MatchResult, len(docs)),
		createdAt:   created,
		updatedAt:   created,
	}
	for i, doc := range docs {
		j.statuses[i] = model.CandidateStatus{ID: doc.ID, Name: doc.Name, Stage: model.StagePending}
		j.index[doc.ID] = i
	}
	return j
}

// advance moves the job forward. Moves the state machine does not allow are ignored.
func (j *job) advance(next model.JobState) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(next)
}

func (j *job) transitionLocked(next model.JobState) bool {
	if !j.state.CanTransition(next) {
		return false
	}
	j.logger.Info("job state changed",
		zap.String("from", string(j.state)),
		zap.String("to", string(next)),
	)
	j.state = next
	j.updatedAt = j.now()
	return true
}

func (j *job) State() model.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *job) setStage(id, stage string) {
	j.update(id, func(s *model.CandidateStatus) { s.Stage = stage })
}

func (j *job) setAttempts(id string, attempts int) {
	j.update(id, func(s *model.CandidateStatus) { s.Attempts = attempts })
}

func (j *job) extracted(id string, profile *model.CandidateProfile, degraded bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.profiles[id] = profile
	j.updateLocked(id, func(s *model.CandidateStatus) {
		s.Stage = model.StageExtracted
		s.Degraded = degraded
		if profile.Name != "" {
			s.Name = profile.Name
		}
	})
}

func (j *job) matched(id string, match model.MatchResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.matches[id] = match
	j.updateLocked(id, func(s *model.CandidateStatus) { s.Stage = model.StageMatched })
}

func (j *job) failCandidate(id, phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failedIn[id] = phase
	j.updateLocked(id, func(s *model.CandidateStatus) {
		s.Stage = model.StageFailed
		s.Error = err.Error()
	})
}

func (j *job) cancelCandidate(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.updateLocked(id, func(s *model.CandidateStatus) {
		if s.Stage != model.StageFailed && s.Stage != model.StageMatched {
			s.Stage = model.StageCancelled
		}
	})
}

func (j *job) addAnomaly(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	j.logger.Warn("job anomaly", zap.String("anomaly", msg))

	j.mu.Lock()
	defer j.mu.Unlock()
	j.anomalies = append(j.anomalies, msg)
}

func (j *job) update(id string, fn func(*model.CandidateStatus)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.updateLocked(id, fn)
}

func (j *job) updateLocked(id string, fn func(*model.CandidateStatus)) {
	i, ok := j.index[id]
	if !ok {
		return
	}
	fn(&j.statuses[i])
	j.updatedAt = j.now()
}

// usableProfiles counts candidates that produced a profile.
func (j *job) usableProfiles() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.profiles)
}

// scorable returns profiles and matches of matched candidates in submission order.
func (j *job) scorable() ([]*model.CandidateProfile, []model.MatchResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	profiles := make([]*model.CandidateProfile, 0, len(j.matches))
	matches := make([]model.MatchResult, 0, len(j.matches))
	for _, doc := range j.docs {
		match, ok := j.matches[doc.ID]
		if !ok {
			continue
		}
		profiles = append(profiles, j.profiles[doc.ID])
		matches = append(matches, match)
	}
	return profiles, matches
}

// excluded lists candidates that never reached scoring, in submission order.
func (j *job) excluded() []model.CandidateFailure {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []model.CandidateFailure
	for _, status := range j.statuses {
		if _, ok := j.matches[status.ID]; ok {
			continue
		}
		phase := j.failedIn[status.ID]
		if phase == "" {
			phase = status.Stage
		}
		reason := status.Error
		if reason == "" {
			reason = "candidate was not processed"
		}
		out = append(out, model.CandidateFailure{
			CandidateID: status.ID,
			Name:        status.Name,
			Stage:       phase,
			Reason:      reason,
		})
	}
	return out
}

func (j *job) Anomalies() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.anomalies...)
}

// finish moves the job to its terminal state. Only the first call succeeds.
func (j *job) finish(state model.JobState, reason string, result *model.JobResult) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.transitionLocked(state) {
		return false
	}
	j.reason = reason
	j.result = result
	return true
}

// Snapshot returns a deep copy of the job safe to hand out.
func (j *job) Snapshot() *model.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	snapshot := &model.JobSnapshot{
		ID:         j.id,
		State:      j.state,
		Reason:     j.reason,
		Candidates: append([]model.CandidateStatus(nil), j.statuses...),
		CreatedAt:  j.createdAt,
		UpdatedAt:  j.updatedAt,
	}
	if j.result != nil {
		snapshot.Result = copyResult(j.result)
	}
	return snapshot
}

func copyResult(in *model.JobResult) *model.JobResult {
	out := *in
	out.Ranked = append([]model.RankedCandidate(nil), in.Ranked...)
	out.Filtered = append([]model.RankedCandidate(nil), in.Filtered...)
	out.Excluded = append([]model.CandidateFailure(nil), in.Excluded...)
	out.Anomalies = append([]string(nil), in.Anomalies...)
	out.TierDistribution = make(map[model.Tier]int, len(in.TierDistribution))
	for tier, n := range in.TierDistribution {
		out.TierDistribution[tier] = n
	}
	return &out
}
