package termchain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ExpectOpts struct {
	Timeout      time.Duration
	ErrorHandler ErrorHandler
}

func NewExpectOpts(opts ...SetExpectOpt) (*ExpectOpts, error) {
	o := &ExpectOpts{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

type SetExpectOpt func(o *ExpectOpts) error

func OptExpectTimeout(timeout time.Duration) SetExpectOpt {
	return func(o *ExpectOpts) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout: %s", timeout)
		}
		o.Timeout = timeout
		return nil
	}
}

func OptExpectErrorHandler(handler ErrorHandler) SetExpectOpt {
	return func(o *ExpectOpts) error {
		o.ErrorHandler = handler
		return nil
	}
}

func OptExpectSilenceErrorHandler() SetExpectOpt {
	return func(o *ExpectOpts) error {
		o.ErrorHandler = SilenceErrorHandler()
		return nil
	}
}

func (s *Session) expectErrorHandler(rerr *error, opts *ExpectOpts) {
	err := *rerr
	if err == nil {
		return
	}

	errorHandler := s.opts.ExpectErrorHandler
	if opts.ErrorHandler != nil {
		errorHandler = opts.ErrorHandler
	}

	*rerr = errorHandler(s, err)
}

func (s *Session) newExpectOpts(opts ...SetExpectOpt) (*ExpectOpts, error) {
	opts = append([]SetExpectOpt{OptExpectTimeout(s.opts.DefaultTimeout)}, opts...)
	return NewExpectOpts(opts...)
}

// ExpectCustom waits until consumer reports a match in the output that has not been matched against yet
func (s *Session) ExpectCustom(consumer consumer, opts ...SetExpectOpt) (rerr error) {
	expectOpts, err := s.newExpectOpts(opts...)
	defer s.expectErrorHandler(&rerr, expectOpts)
	if err != nil {
		return fmt.Errorf("could not create expect options: %w", err)
	}

	return s.await(context.Background(), "custom consumer", consumer, expectOpts)
}

// Expect listens to the terminal output and returns once the expected value is found or a timeout occurs
func (s *Session) Expect(value string, opts ...SetExpectOpt) error {
	return s.ExpectPattern(Literal(value), opts...)
}

// ExpectRe listens to the terminal output and returns once the expected regular expression is matched or a timeout occurs
func (s *Session) ExpectRe(rx *regexp.Regexp, opts ...SetExpectOpt) error {
	return s.ExpectPattern(Regexp(rx), opts...)
}

// ExpectPattern listens to the terminal output and returns once the pattern matched, the timeout expired or the
// process exited
func (s *Session) ExpectPattern(p Pattern, opts ...SetExpectOpt) (rerr error) {
	expectOpts, err := s.newExpectOpts(opts...)
	defer s.expectErrorHandler(&rerr, expectOpts)
	if err != nil {
		return fmt.Errorf("could not create expect options: %w", err)
	}

	return s.expectPattern(context.Background(), p, expectOpts)
}

func (s *Session) expectPattern(ctx context.Context, p Pattern, opts *ExpectOpts) error {
	s.opts.Logger.Printf("Expect: %s\n", s.transcript.Redact(p.String()))

	consume := patternConsumer(p)
	return s.await(ctx, p.String(), func(buffer string) (int, error) {
		s.opts.Logger.Printf("expect: %s, buffer: '%s'\n", p, s.transcript.Redact(strings.Trim(strings.TrimSpace(buffer), "\x00")))
		return consume(buffer)
	}, opts)
}

// await is the suspension point of the session, nothing else happens on it until the consumer is satisfied or fails
func (s *Session) await(ctx context.Context, desc string, consume consumer, opts *ExpectOpts) error {
	cons, err := s.outputProducer.addConsumer(consume, opts.Timeout)
	if err != nil {
		return fmt.Errorf("could not add consumer: %w", err)
	}

	err = cons.wait(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errOutputClosed):
		exitCode := s.awaitExitCode(opts.Timeout)
		return fmt.Errorf("process exited before match for %s (exit code %d): %w\nPending output: %s",
			desc, exitCode, ErrPrematureExit, s.transcript.Redact(s.PendingOutput()))
	case errors.Is(err, TimeoutError):
		s.outputProducer.removeConsumer(cons)
		return fmt.Errorf("timeout waiting for %s %w\nPending output: %s",
			desc, err, s.transcript.Redact(s.PendingOutput()))
	default:
		s.outputProducer.removeConsumer(cons)
		return fmt.Errorf("waiting for %s: %w", desc, err)
	}
}

// awaitExitCode gives the process up to timeout to be reaped once its output closed, it returns -1 if it was not
func (s *Session) awaitExitCode(timeout time.Duration) int {
	select {
	case <-s.exited:
		return s.exitCode()
	case <-time.After(timeout):
		return -1
	}
}

// ExpectExitCode waits for the program under test to terminate, and checks that the returned exit code meets expectations
func (s *Session) ExpectExitCode(exitCode int, opts ...SetExpectOpt) error {
	return s.ExpectExitCodeCtx(context.Background(), exitCode, true, opts...)
}

// ExpectNotExitCode waits for the program under test to terminate, and checks that the returned exit code is not the value provide
func (s *Session) ExpectNotExitCode(exitCode int, opts ...SetExpectOpt) error {
	return s.ExpectExitCodeCtx(context.Background(), exitCode, false, opts...)
}

// ExpectExit waits for the program under test to terminate, not caring about the exit code
func (s *Session) ExpectExit(opts ...SetExpectOpt) error {
	return s.ExpectExitCodeCtx(context.Background(), -999, false, opts...)
}

// ExpectExitCodeCtx waits for the process to exit and compares its exit code against exitCode, expecting them to be
// equal when match is set and different otherwise
func (s *Session) ExpectExitCodeCtx(ctx context.Context, exitCode int, match bool, opts ...SetExpectOpt) (rerr error) {
	s.opts.Logger.Printf("Expecting exit code %d: %v", exitCode, match)
	defer func() {
		s.opts.Logger.Printf("Expect exit code result: %s", unwrapErrorMessage(rerr))
	}()

	expectOpts, err := s.newExpectOpts(opts...)
	defer s.expectErrorHandler(&rerr, expectOpts)
	if err != nil {
		return fmt.Errorf("could not create expect options: %w", err)
	}

	return s.expectExitCode(ctx, exitCode, match, expectOpts.Timeout)
}

func (s *Session) expectExitCode(ctx context.Context, exitCode int, match bool, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("process still running after %s: %w", timeout, TimeoutError)
	case <-s.exited:
	}

	// The pty can still hold output of the exited process, it is part of what the exit is checked against
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("output of the exited process not read within %s: %w", timeout, TimeoutError)
	case <-s.listenDone:
	}

	if s.exitResult.Err != nil {
		return fmt.Errorf("cmd wait failed: %w", s.exitResult.Err)
	}
	return s.assertExitCode(s.exitCode(), exitCode, match)
}

func (s *Session) assertExitCode(exitCode, comparable int, match bool) error {
	s.opts.Logger.Printf("assertExitCode: exitCode=%d, comparable=%d, match=%v\n", exitCode, comparable, match)
	if compared := exitCode == comparable; compared != match {
		if match {
			return fmt.Errorf("expected exit code %d, got %d: %w", comparable, exitCode, ErrExitCode)
		}
		return fmt.Errorf("expected exit code to not be %d: %w", exitCode, ErrExitCode)
	}
	return nil
}
