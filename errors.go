package termchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	TimeoutError = errors.New("timeout")

	// ErrSpawn is returned when the command could not be started
	ErrSpawn = errors.New("could not spawn process")

	// ErrPrematureExit is returned when the process exited before the chain was satisfied: before an expected
	// pattern matched, before input could be delivered, or with an exit code other than the expected one
	ErrPrematureExit = errors.New("process exited prematurely")

	// ErrExitCode is returned when the process exited with an exit code that does not meet expectations
	ErrExitCode = errors.New("unexpected exit code")

	// ErrSelection is returned when a single-select target is not one of the options
	ErrSelection = errors.New("invalid selection")

	// ErrInvalidStep is returned for steps that can never succeed, such as waiting for an empty pattern
	ErrInvalidStep = errors.New("invalid step")

	// ErrChainStarted is returned when a chain is executed more than once
	ErrChainStarted = errors.New("chain already started")
)

type FailureKind int

const (
	KindUnknown FailureKind = iota
	KindSpawn
	KindTimeout
	KindPrematureExit
	KindConfiguration
	KindCanceled
	KindIO
)

func (k FailureKind) String() string {
	switch k {
	case KindSpawn:
		return "spawn error"
	case KindTimeout:
		return "timeout"
	case KindPrematureExit:
		return "premature exit"
	case KindConfiguration:
		return "configuration error"
	case KindCanceled:
		return "canceled"
	case KindIO:
		return "io error"
	default:
		return "unknown"
	}
}

// sentinel returns the package error that errors.Is matches for this kind
func (k FailureKind) sentinel() error {
	switch k {
	case KindSpawn:
		return ErrSpawn
	case KindTimeout:
		return TimeoutError
	case KindPrematureExit:
		return ErrPrematureExit
	default:
		return nil
	}
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrSpawn):
		return KindSpawn
	case errors.Is(err, TimeoutError):
		return KindTimeout
	case errors.Is(err, ErrPrematureExit), errors.Is(err, ErrExitCode):
		return KindPrematureExit
	case errors.Is(err, ErrSelection), errors.Is(err, ErrInvalidStep):
		return KindConfiguration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindIO
	}
}

// ChainError is the single failure a chain resolves with
type ChainError struct {
	Kind FailureKind
	// Step is the zero based index of the failed step, -1 if the chain failed before running any step and
	// len(steps) if it failed while waiting for the process to exit
	Step     int
	StepName string
	// ExitCode is the exit code of the process if it had exited by the time of the failure, -1 otherwise
	ExitCode int
	// Transcript is the redacted record of the session up to the failure
	Transcript string
	Err        error
}

func (e *ChainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Kind)
	if e.StepName != "" {
		fmt.Fprintf(&b, " at step %d (%s)", e.Step+1, e.StepName)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.ExitCode != -1 {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	return b.String()
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

func (e *ChainError) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// SelectionError reports a single-select target that is not among the options
type SelectionError struct {
	Target  string
	Options []string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: %q is not one of [%s]", ErrSelection, e.Target, strings.Join(e.Options, ", "))
}

func (e *SelectionError) Unwrap() error {
	return ErrSelection
}
