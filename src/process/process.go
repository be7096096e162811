// Package process runs external commands and captures their output.
//
// The build engine and the merge tool are long-running, chatty processes.
// Executor captures both streams in full (optionally tee'ing them to the
// terminal) and reports non-zero exits as *ExitError without discarding the
// captured output, so callers can still decode the engine's diagnostics.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// defaultWaitDelay bounds how long Execute waits for output pipes to drain
// after the child exits or is killed.
const defaultWaitDelay = 5 * time.Second

// Result is the captured outcome of one command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// Executor runs an external command to completion.
//
// On non-zero exit the captured *Result is returned together with an
// *ExitError. Any other error (binary missing, context cancelled before
// start) is returned with a nil result.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (*Result, error)
}

// Exec is the os/exec backed Executor.
type Exec struct {
	// Stdout and Stderr, when set, receive a live copy of the child's output.
	Stdout io.Writer
	Stderr io.Writer
	// Dir is the working directory of the child. Empty means inherit.
	Dir       string
	WaitDelay time.Duration
	Logger    *slog.Logger
}

// NewExec returns an Exec that captures output without streaming it.
func NewExec(logger *slog.Logger) *Exec {
	return &Exec{Logger: logger, WaitDelay: defaultWaitDelay}
}

// Execute implements Executor.
func (x *Exec) Execute(ctx context.Context, name string, args ...string) (*Result, error) {
	start := time.Now()
	log := x.logger()
	log.Debug("exec", "cmd", name, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = x.Dir
	cmd.Stdout = tee(&stdout, x.Stdout)
	cmd.Stderr = tee(&stderr, x.Stderr)
	cmd.WaitDelay = x.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		// A cancelled context wins over whatever exit status the kill produced.
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Debug("exec cancelled", "cmd", name, "elapsed", time.Since(start))
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			log.Debug("exec failed", "cmd", name, "exit", res.ExitCode, "elapsed", time.Since(start))
			return res, &ExitError{
				Command:  commandLabel(name, args),
				ExitCode: res.ExitCode,
				Stderr:   res.Stderr,
			}
		}
		return nil, fmt.Errorf("running %s: %w", name, err)
	}

	log.Debug("exec done", "cmd", name, "elapsed", time.Since(start))
	return res, nil
}

func (x *Exec) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.Logger
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func commandLabel(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + args[0]
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
