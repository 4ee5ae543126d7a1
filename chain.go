package termchain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sync"
)

// Step is a single scheduled action of a Chain
type Step interface {
	fmt.Stringer
	run(ctx context.Context, s *Session) error
}

type expectStep struct {
	pattern Pattern
	opts    []SetExpectOpt
}

func (e expectStep) String() string {
	return "wait " + e.pattern.String()
}

func (e expectStep) run(ctx context.Context, s *Session) error {
	opts, err := s.newExpectOpts(e.opts...)
	if err != nil {
		return fmt.Errorf("could not create expect options: %w", err)
	}
	return s.expectPattern(ctx, e.pattern, opts)
}

type sendStep struct {
	label    string
	value    string
	redacted bool
}

func (e sendStep) String() string {
	if e.label != "" {
		return e.label
	}
	if e.redacted {
		return "send (redacted)"
	}
	return fmt.Sprintf("send %q", e.value)
}

func (e sendStep) run(_ context.Context, s *Session) error {
	return s.send(e.value, e.redacted)
}

type recordingStep struct {
	paused bool
}

func (e recordingStep) String() string {
	if e.paused {
		return "pause recording"
	}
	return "resume recording"
}

func (e recordingStep) run(_ context.Context, s *Session) error {
	if e.paused {
		s.PauseRecording()
	} else {
		s.ResumeRecording()
	}
	return nil
}

// Chain is an ordered sequence of wait and send steps against a single session. It is built with chained calls
// and executed exactly once:
//
//	err := termchain.Spawn("mycli", []string{"configure"}, termchain.OptStripColors(true)).
//		Wait("Enter name:").
//		SendLine("alice").
//		Execute(ctx)
type Chain struct {
	session  *Session
	opts     *Opts
	spawnErr error
	buildErr error
	steps    []Step
	paused   bool
	started  bool
	mutex    sync.Mutex
}

// Spawn starts command with the given arguments and returns an empty chain bound to it. If the command cannot be
// started the chain fails as soon as it is executed, without running any step.
func Spawn(command string, args []string, opts ...SetOpt) *Chain {
	return spawn(exec.Command(command, args...), opts...)
}

// NewChain is Spawn for a prepared command
func NewChain(cmd *exec.Cmd, opts ...SetOpt) *Chain {
	return spawn(cmd, opts...)
}

func spawn(cmd *exec.Cmd, opts ...SetOpt) *Chain {
	optv, err := newOpts(opts...)
	if err != nil {
		return &Chain{opts: NewOpts(), spawnErr: fmt.Errorf("%w: %w", ErrSpawn, err)}
	}

	session, err := newSession(cmd, optv)
	if err != nil {
		optv.Logger.Printf("spawn failed: %v", err)
		if !errors.Is(err, ErrSpawn) {
			err = fmt.Errorf("%w: %w", ErrSpawn, err)
		}
		return &Chain{opts: optv, spawnErr: err}
	}

	return &Chain{session: session, opts: optv}
}

// Session returns the session the chain drives, nil if the command could not be started
func (c *Chain) Session() *Session {
	return c.session
}

// Steps returns a copy of the steps scheduled so far
func (c *Chain) Steps() []Step {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]Step{}, c.steps...)
}

// Err returns the first error recorded while building the chain
func (c *Chain) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.buildErr
}

func (c *Chain) add(step Step) *Chain {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.started {
		panic(fmt.Sprintf("termchain: cannot add %q, chain already started", step))
	}
	c.steps = append(c.steps, step)
	return c
}

func (c *Chain) fail(err error) *Chain {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.buildErr == nil {
		c.buildErr = err
	}
	return c
}

func (c *Chain) send(label, value string) *Chain {
	c.mutex.Lock()
	redacted := c.paused
	c.mutex.Unlock()
	return c.add(sendStep{label: label, value: value, redacted: redacted})
}

// Wait schedules a wait for the literal value
func (c *Chain) Wait(value string, opts ...SetExpectOpt) *Chain {
	if value == "" {
		return c.fail(fmt.Errorf("%w: cannot wait for an empty string", ErrInvalidStep))
	}
	return c.WaitPattern(Literal(value), opts...)
}

// WaitRe schedules a wait for the regular expression
func (c *Chain) WaitRe(rx *regexp.Regexp, opts ...SetExpectOpt) *Chain {
	return c.WaitPattern(Regexp(rx), opts...)
}

// WaitPattern schedules a wait for the pattern, use OptExpectTimeout to override the default timeout
func (c *Chain) WaitPattern(p Pattern, opts ...SetExpectOpt) *Chain {
	return c.add(expectStep{pattern: p, opts: opts})
}

// Send schedules writing value as is
func (c *Chain) Send(value string) *Chain {
	return c.send("", value)
}

// SendLine schedules writing value followed by a line terminator
func (c *Chain) SendLine(value string) *Chain {
	sep := lineSep
	if !c.opts.Posix {
		sep = "\r\n"
	}
	return c.send("", value+sep)
}

// SendCarriageReturn schedules a lone carriage return, accepting the default value of a prompt
func (c *Chain) SendCarriageReturn() *Chain {
	return c.send("carriage return", KeyEnter)
}

// SendConfirmYes answers a yes/no prompt with yes
func (c *Chain) SendConfirmYes() *Chain {
	return c.send("confirm yes", "y").SendCarriageReturn()
}

// SendConfirmNo answers a yes/no prompt with no
func (c *Chain) SendConfirmNo() *Chain {
	return c.send("confirm no", "n").SendCarriageReturn()
}

// SendKeyDown schedules a down arrow key press
func (c *Chain) SendKeyDown() *Chain {
	return c.send("key down", KeyDown)
}

// SendKeyUp schedules an up arrow key press
func (c *Chain) SendKeyUp() *Chain {
	return c.send("key up", KeyUp)
}

// SendKey schedules a key press by friendly name, see LookupKey
func (c *Chain) SendKey(name string) *Chain {
	seq, err := LookupKey(name)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrInvalidStep, err))
	}
	return c.send("key "+name, seq)
}

func (c *Chain) SendCtrlC() *Chain {
	return c.send("ctrl+c", KeyCtrlC)
}

// SendEOF closes the input of a program reading from the terminal
func (c *Chain) SendEOF() *Chain {
	return c.send("eof", KeyCtrlD)
}

// PauseRecording hides everything sent by the following steps from the transcript and logs
func (c *Chain) PauseRecording() *Chain {
	c.add(recordingStep{paused: true})
	c.mutex.Lock()
	c.paused = true
	c.mutex.Unlock()
	return c
}

// ResumeRecording ends the redaction window opened by PauseRecording
func (c *Chain) ResumeRecording() *Chain {
	c.add(recordingStep{paused: false})
	c.mutex.Lock()
	c.paused = false
	c.mutex.Unlock()
	return c
}

// Select schedules the key presses choosing target in a single-select prompt listing options. A target that is not
// one of the options fails the chain before any step runs.
func (c *Chain) Select(target string, options []string) *Chain {
	if err := SingleSelect(c, target, options); err != nil {
		return c.fail(err)
	}
	return c
}

// Run executes the chain and calls callback exactly once with the outcome
func (c *Chain) Run(callback func(err error)) {
	callback(c.Execute(context.Background()))
}

// Start executes the chain in the background
func (c *Chain) Start(ctx context.Context) *Outcome {
	o := newOutcome()
	go func() {
		o.resolve(c.Execute(ctx))
	}()
	return o
}

// Execute runs every step in order and returns the first failure as a *ChainError. Once all steps ran it waits for
// the process to exit with the expected exit code, unless OptSkipExitCheck was given. The process is terminated
// and the pty released before Execute returns.
func (c *Chain) Execute(ctx context.Context) (rerr error) {
	c.mutex.Lock()
	if c.started {
		c.mutex.Unlock()
		return ErrChainStarted
	}
	c.started = true
	c.mutex.Unlock()

	defer func() {
		if rerr != nil {
			rerr = c.opts.ExpectErrorHandler(c.session, rerr)
		}
	}()

	if c.spawnErr != nil {
		return &ChainError{Kind: KindSpawn, Step: -1, ExitCode: -1, Err: c.spawnErr}
	}

	s := c.session
	defer func() {
		if err := s.Close(); err != nil {
			s.opts.Logger.Printf("could not close session: %v", err)
		}
	}()

	if c.buildErr != nil {
		return c.failure(-1, "", c.buildErr)
	}

	for i, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return c.failure(i, step.String(), err)
		}
		s.opts.Logger.Printf("step %d/%d: %s", i+1, len(c.steps), step)
		if err := step.run(ctx, s); err != nil {
			return c.failure(i, step.String(), err)
		}
	}

	if !s.opts.SkipExitCheck {
		if err := s.expectExitCode(ctx, s.opts.ExpectExitCode, true, s.opts.DefaultTimeout); err != nil {
			return c.failure(len(c.steps), "exit", err)
		}
	}

	return nil
}

func (c *Chain) failure(step int, name string, err error) *ChainError {
	s := c.session
	s.opts.Logger.Printf("chain failed at step %d: %v", step+1, err)

	// Stop the process first so that it cannot produce more output while we assemble the diagnostics
	if !s.hasExited() {
		if terr := terminateProcessTree(s.cmd.Process.Pid); terr != nil {
			s.opts.Logger.Printf("could not terminate process tree: %v", terr)
		}
	}

	return &ChainError{
		Kind:       classifyFailure(err),
		Step:       step,
		StepName:   name,
		ExitCode:   s.ExitCode(),
		Transcript: s.transcript.String(),
		Err:        err,
	}
}
