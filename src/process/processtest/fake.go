// Package processtest provides a scripted process.Executor for tests.
package processtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sofmeright/xcforge/src/process"
)

// Call records one Execute invocation.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response scripts the outcome of a matched call.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as a start failure (nil result).
	Err error
	// Do runs before the response is returned, e.g. to create build products.
	Do func(ctx context.Context, c Call) error
	// Block waits for ctx cancellation before returning.
	Block bool
}

type rule struct {
	name string
	verb string
	resp Response
}

// Fake is a process.Executor that returns scripted responses.
// Rules are matched in registration order on command name and first
// argument; an empty verb matches any arguments. Unmatched calls fail.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// On registers a response for name with args[0] == verb.
func (f *Fake) On(name, verb string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{name: name, verb: verb, resp: resp})
	return f
}

// Calls returns a snapshot of recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns recorded calls whose first argument is verb.
func (f *Fake) CallsTo(verb string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if len(c.Args) > 0 && c.Args[0] == verb {
			out = append(out, c)
		}
	}
	return out
}

// Execute implements process.Executor.
func (f *Fake) Execute(ctx context.Context, name string, args ...string) (*process.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	resp, ok := f.match(call)
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("processtest: unexpected call: %s", call)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resp.Block {
		<-ctx.Done()
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if resp.Do != nil {
		if err := resp.Do(ctx, call); err != nil {
			return nil, err
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	res := &process.Result{ExitCode: resp.ExitCode, Stdout: resp.Stdout, Stderr: resp.Stderr}
	if resp.ExitCode != 0 {
		label := name
		if len(args) > 0 {
			label += " " + args[0]
		}
		return res, &process.ExitError{Command: label, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return res, nil
}

func (f *Fake) match(c Call) (Response, bool) {
	for _, r := range f.rules {
		if r.name != c.Name {
			continue
		}
		if r.verb == "" || (len(c.Args) > 0 && c.Args[0] == r.verb) {
			return r.resp, true
		}
	}
	return Response{}, false
}
