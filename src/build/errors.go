package build

import (
	"errors"
	"fmt"
)

var (
	ErrBuildFailed       = errors.New("build failed")
	ErrDiscovery         = errors.New("build product not found")
	ErrModuleMap         = errors.New("module map generation failed")
	ErrAssembly          = errors.New("framework assembly failed")
	ErrMerge             = errors.New("xcframework merge failed")
	ErrDestinationExists = errors.New("destination already exists")
)

// StepError reports which (target, platform) step failed and in which state.
type StepError struct {
	Target   string
	Platform Platform
	State    State
	// Detail is the decoded build log, or the raw stderr when nothing decodes.
	Detail string
	Err    error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s (%s) %s: %v", e.Target, e.Platform, e.State, e.Err)
	if e.Detail != "" {
		msg += "\n" + e.Detail
	}
	return msg
}

func (e *StepError) Unwrap() error { return e.Err }
