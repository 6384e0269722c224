package domain

import "time"

// Outcome is the terminal state of a target within one session.
type Outcome string

const (
	OutcomeBuilt     Outcome = "built"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeCancelled Outcome = "cancelled"
)

// RunStatus is the overall result of a session.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// TargetResult is the outcome of one target.
type TargetResult struct {
	Name    string        `json:"name"`
	Kind    TargetKind    `json:"kind"`
	Outcome Outcome       `json:"outcome"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// BuildReport summarises a build session. Targets are listed in topological order.
type BuildReport struct {
	Status        RunStatus      `json:"status"`
	Configuration Configuration  `json:"configuration"`
	Started       time.Time      `json:"started"`
	Elapsed       time.Duration  `json:"elapsed"`
	Targets       []TargetResult `json:"targets"`
}

// Failed reports whether at least one target failed.
func (r *BuildReport) Failed() bool {
	return r.Count(OutcomeFailed) > 0
}

// Count returns how many targets ended with outcome o.
func (r *BuildReport) Count(o Outcome) int {
	n := 0
	for _, t := range r.Targets {
		if t.Outcome == o {
			n++
		}
	}
	return n
}

// Result returns the outcome recorded for a target.
func (r *BuildReport) Result(name string) (TargetResult, bool) {
	for _, t := range r.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetResult{}, false
}
