package output

import (
	"errors"

	"github.com/sofmeright/xcforge/src/build"
)

// Status is the outcome shown at the end of a step or target row. Values
// match build.TargetResult.Status.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StatusIcon returns the icon for st; unknown values render as skipped.
func StatusIcon(st Status, color bool) string {
	switch st {
	case StatusSuccess:
		return colorize("✓", colorGreen, color)
	case StatusFailed:
		return colorize("✗", colorRed, color)
	default:
		return colorize("⊘", colorYellow, color)
	}
}

// stepStatus classifies a step result. A step that never reached a
// terminal state was cancelled before it ran.
func stepStatus(s build.StepResult) Status {
	switch {
	case !s.State.Terminal():
		return StatusSkipped
	case s.State == build.StateFailed:
		return StatusFailed
	default:
		return StatusSuccess
	}
}

// targetStatus classifies a target result.
func targetStatus(t build.TargetResult) Status {
	switch Status(t.Status) {
	case StatusSuccess, StatusFailed:
		return Status(t.Status)
	default:
		return StatusSkipped
	}
}

// failedIn names the state a failed step stopped in.
func failedIn(s build.StepResult) string {
	var fail *build.StepError
	if errors.As(s.Error, &fail) {
		return fail.State.String()
	}
	return s.State.String()
}
