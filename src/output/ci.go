package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/xcforge/src/build"
	"github.com/sofmeright/xcforge/src/fsys"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Collapsible log section helpers. GitLab uses section markers, GitHub
// Actions uses workflow-command groups; elsewhere they write nothing.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), id, name)
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
	case IsGitHubActions():
		fmt.Fprintln(w, "::endgroup::")
	}
}

// SectionStartCollapsed starts a section that is collapsed by default.
// GitHub groups are always collapsed.
func SectionStartCollapsed(w io.Writer, id, name string) {
	switch {
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s[collapsed=true]\r\033[0K%s\n", time.Now().Unix(), id, name)
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	}
}

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteBuildJUnit writes a build result as JUnit XML for CI test reporting.
// Each target becomes a test suite, each platform step a test case, and
// source targets get one more case for the merge.
func WriteBuildJUnit(fs fsys.FS, dir string, res *build.BuildResult) error {
	totalTests := 0
	totalFailures := 0
	var suites []JUnitTestSuite

	for _, t := range res.Targets {
		suite := JUnitTestSuite{
			Name: "xcforge/build/" + t.Target,
			Time: seconds(t.Duration),
		}
		add := func(tc JUnitTestCase) {
			if tc.Failure != nil {
				suite.Failures++
				totalFailures++
			}
			suite.Cases = append(suite.Cases, tc)
			suite.Tests++
			totalTests++
		}

		stepFailed := false
		for _, s := range t.Steps {
			tc := JUnitTestCase{
				Name:      string(s.Platform),
				Classname: "xcforge.build." + t.Target,
				Time:      seconds(s.Duration),
			}
			switch {
			case !s.State.Terminal():
				tc.Skipped = &JUnitSkipped{Message: "not built: " + errString(s.Error)}
				stepFailed = true
			case s.Error != nil:
				stepFailed = true
				tc.Failure = &JUnitFailure{
					Message: fmt.Sprintf("%s failed while %s", s.Platform, failedIn(s)),
					Type:    "build",
					Body:    s.Error.Error(),
				}
			}
			add(tc)
		}

		name, class := "merge", "xcforge.merge."+t.Target
		if t.Kind == build.KindBinary {
			name, class = "extract", "xcforge.extract."+t.Target
		}
		tc := JUnitTestCase{Name: name, Classname: class, Time: "0.000"}
		switch {
		case t.Status == "skipped":
			tc.Skipped = &JUnitSkipped{Message: errString(t.Error)}
		case t.Error != nil && !stepFailed:
			tc.Failure = &JUnitFailure{Message: name + " failed", Type: name, Body: t.Error.Error()}
		case stepFailed:
			tc.Skipped = &JUnitSkipped{Message: "a platform build failed"}
		}
		add(tc)

		suites = append(suites, suite)
	}

	root := JUnitTestSuites{
		Name:     "xcforge-build",
		Tests:    totalTests,
		Failures: totalFailures,
		Time:     seconds(res.Duration),
		Suites:   suites,
	}

	data, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding junit xml: %w", err)
	}
	path := filepath.Join(dir, "build.xml")
	out := append([]byte(xml.Header), data...)
	if err := fs.WriteFile(path, append(out, '\n')); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// CIHeader prints a compact pipeline context block at the start of a CI run.
// GitLab and GitHub Actions variables are both understood.
func CIHeader(w io.Writer) {
	if !IsCI() {
		return
	}
	parts := []string{}
	if tag := firstEnv("CI_COMMIT_TAG"); tag != "" {
		parts = append(parts, fmt.Sprintf("tag=%s", tag))
	}
	if sha := os.Getenv("CI_COMMIT_SHORT_SHA"); sha != "" {
		parts = append(parts, fmt.Sprintf("sha=%s", sha))
	} else if sha := firstEnv("CI_COMMIT_SHA", "GITHUB_SHA"); len(sha) >= 8 {
		parts = append(parts, fmt.Sprintf("sha=%s", sha[:8]))
	}
	if pipe := firstEnv("CI_PIPELINE_ID", "GITHUB_RUN_ID"); pipe != "" {
		parts = append(parts, fmt.Sprintf("pipeline=%s", pipe))
	}
	if runner := firstEnv("CI_RUNNER_DESCRIPTION", "RUNNER_NAME"); runner != "" {
		parts = append(parts, fmt.Sprintf("runner=%s", runner))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  ci: %s\n", strings.Join(parts, "  "))
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// PhaseResult prints a compact single-line phase summary.
func PhaseResult(w io.Writer, name, status, detail string, elapsed time.Duration) {
	icon := "\033[32m✓\033[0m"
	if status == "failed" {
		icon = "\033[31m✗\033[0m"
	} else if status == "skipped" {
		icon = "\033[33m⊘\033[0m"
	}
	fmt.Fprintf(w, "  %-10s %s  %-50s (%s)\n", name, icon, detail, elapsed.Round(time.Millisecond))
}
