package output

import (
	"fmt"
	"strings"

	"github.com/sofmeright/xcforge/src/build"
)

// PlanRows lists every target of a plan with its platforms and output.
func PlanRows(sec *Section, plan *build.BuildPlan, color bool) {
	for _, t := range plan.Targets {
		if t.Target.Kind == build.KindBinary {
			sec.Row("%-24s %-8s %s", t.Target.Name, "binary", Dimmed("→ "+t.Output, color))
			continue
		}
		platforms := make([]string, 0, len(t.Steps))
		for _, s := range t.Steps {
			platforms = append(platforms, string(s.Platform))
		}
		sec.Row("%-24s %-8s %s", t.Target.Name, t.Target.Kind, strings.Join(platforms, ", "))
		sec.Row("%-24s %-8s %s", "", "", Dimmed("→ "+t.Output, color))
	}
}

// StepRow renders one finished platform step: elapsed time when it built,
// otherwise the state it stopped in.
func StepRow(sec *Section, s build.StepResult) {
	st := stepStatus(s)
	detail := formatElapsed(s.Duration)
	switch st {
	case StatusFailed:
		detail = "failed while " + failedIn(s)
	case StatusSkipped:
		detail = s.State.String()
	}
	sec.Status(s.Target+" "+string(s.Platform), detail, st)
}

// FailureRows writes the decoded failure text of every failed target.
func FailureRows(sec *Section, res *build.BuildResult, color bool) {
	for _, t := range res.Targets {
		if t.Error == nil || t.Status == "skipped" {
			continue
		}
		sec.Row("%s", colorize(t.Target, colorBold, color))
		for _, line := range strings.Split(t.Error.Error(), "\n") {
			sec.Row("  %s", colorize(line, colorRed, color))
		}
	}
}

// BuildSummary writes one row per target, then the total.
func BuildSummary(sec *Section, res *build.BuildResult) {
	total := StatusSuccess
	for _, t := range res.Targets {
		detail := t.XCFramework
		if t.Kind == build.KindBinary {
			detail = t.Extracted
		}
		if t.Error != nil {
			detail = fmt.Sprintf("%d/%d platforms", doneSteps(t), len(t.Steps))
			total = StatusFailed
		}
		sec.Status(t.Target, detail, targetStatus(t))
	}
	sec.Separator()
	sec.Total(res.Duration, total)
}

func doneSteps(t build.TargetResult) int {
	n := 0
	for _, s := range t.Steps {
		if s.State == build.StateDone {
			n++
		}
	}
	return n
}
