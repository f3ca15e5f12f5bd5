package model

import "time"

// JobState is the lifecycle state of a ranking job.
type JobState string

const (
	StateInitialized JobState = "INITIALIZED"
	StateAnalyzingJD JobState = "ANALYZING_JD"
	StateParsing     JobState = "PARSING"
	StateMatching    JobState = "MATCHING"
	StateScoring     JobState = "SCORING"
	StateRanking     JobState = "RANKING"
	StateCompleted   JobState = "COMPLETED"
	StateFailed      JobState = "FAILED"
)

var stateOrder = map[JobState]int{
	StateInitialized: 0,
	StateAnalyzingJD: 1,
	StateParsing:     2,
	StateMatching:    3,
	StateScoring:     4,
	StateRanking:     5,
	StateCompleted:   6,
}

func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether the state machine allows moving from s to next.
// Forward moves only; FAILED is reachable from every non-terminal state.
func (s JobState) CanTransition(next JobState) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	from, ok := stateOrder[s]
	if !ok {
		return false
	}
	to, ok := stateOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Candidate stages tracked for status reporting.
const (
	StagePending    = "pending"
	StageExtracting = "extracting"
	StageExtracted  = "extracted"
	StageMatching   = "matching"
	StageMatched    = "matched"
	StageFailed     = "failed"
	StageCancelled  = "cancelled"
)

// CandidateStatus is the progress of one candidate inside a job.
type CandidateStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Stage    string `json:"stage"`
	Attempts int    `json:"attempts"`
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}

// JobSnapshot is a point-in-time copy of a job, safe to hand out and persist.
type JobSnapshot struct {
	ID         string            `json:"id"`
	State      JobState          `json:"state"`
	Reason     string            `json:"reason,omitempty"`
	Candidates []CandidateStatus `json:"candidates"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Result     *JobResult        `json:"result,omitempty"`
}
