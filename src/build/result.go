package build

import "time"

// State is the lifecycle of one (target, platform) build.
type State int

const (
	StateNotStarted State = iota
	StateBuilding
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateBuilding:
		return "building"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// BuildResult captures the outcome of a full plan execution.
type BuildResult struct {
	Targets  []TargetResult
	Duration time.Duration
}

// Failed returns the targets that did not complete.
func (r *BuildResult) Failed() []TargetResult {
	var out []TargetResult
	for _, t := range r.Targets {
		if t.Status == "failed" {
			out = append(out, t)
		}
	}
	return out
}

// TargetResult captures the outcome for one target.
type TargetResult struct {
	Target      string
	Kind        TargetKind
	Status      string // "success", "failed", "skipped"
	Steps       []StepResult
	XCFramework string // merged output, source targets only
	Extracted   string // copied artifact, binary targets only
	Duration    time.Duration
	Error       error
}

// StepResult captures the outcome of a single (target, platform) build.
type StepResult struct {
	Target       string
	Platform     Platform
	State        State
	Framework    string // assembled single-platform bundle
	DebugSymbols string // dSYM bundle, when present and requested
	Duration     time.Duration
	Error        error
}
