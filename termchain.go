package termchain

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"runtime/debug"
	"sync"
	"testing"
	"time"

	"github.com/ActiveState/pty"
	"github.com/hinshun/vt10x"
)

// Session bonds a command with a pseudo-terminal for automation
type Session struct {
	cmd            *exec.Cmd
	term           vt10x.Terminal
	ptmx           pty.Pty
	outputProducer *outputProducer
	transcript     *Transcript
	opts           *Opts

	listenDone chan struct{}
	listenErr  error

	exited     chan struct{}
	exitResult cmdExit

	closeOnce sync.Once
	closeErr  error
}

type ErrorHandler func(*Session, error) error

type Opts struct {
	Logger               *log.Logger
	ExpectErrorHandler   ErrorHandler
	Cols                 int
	Rows                 int
	Posix                bool
	DefaultTimeout       time.Duration
	OutputSanitizer      cleanerFunc
	NormalizedLineEnds   bool
	StripColors          bool
	Dir                  string
	Env                  []string
	ExpectExitCode       int
	SkipExitCheck        bool
	RedactionPlaceholder string
}

var VerboseLogger = log.New(os.Stderr, "TermChain: ", log.LstdFlags|log.Lshortfile)

var VoidLogger = log.New(voidWriter{}, "", 0)

type SetOpt func(o *Opts) error

const DefaultCols = 140
const DefaultRows = 10

// closeTimeout bounds how long Close waits for the process and the output listener to wind down
const closeTimeout = 5 * time.Second

func NewOpts() *Opts {
	return &Opts{
		Logger:               VoidLogger,
		ExpectErrorHandler:   SilenceErrorHandler(),
		Cols:                 DefaultCols,
		Rows:                 DefaultRows,
		Posix:                runtime.GOOS != "windows",
		DefaultTimeout:       5 * time.Second,
		RedactionPlaceholder: DefaultRedactionPlaceholder,
	}
}

func newOpts(opts ...SetOpt) (*Opts, error) {
	optv := NewOpts()
	for _, setOpt := range opts {
		if err := setOpt(optv); err != nil {
			return nil, fmt.Errorf("could not set option: %w", err)
		}
	}
	return optv, nil
}

// New starts cmd on a pseudo-terminal. The process begins running immediately.
func New(cmd *exec.Cmd, opts ...SetOpt) (*Session, error) {
	optv, err := newOpts(opts...)
	if err != nil {
		return nil, err
	}
	return newSession(cmd, optv)
}

func newSession(cmd *exec.Cmd, optv *Opts) (*Session, error) {
	if optv.Dir != "" {
		cmd.Dir = optv.Dir
	}
	if len(optv.Env) > 0 {
		env := cmd.Env
		if env == nil {
			env = os.Environ()
		}
		cmd.Env = append(env, optv.Env...)
	}

	transcript := newTranscript(optv.RedactionPlaceholder)
	s := &Session{
		cmd:            cmd,
		outputProducer: newOutputProducer(optv, transcript),
		transcript:     transcript,
		listenDone:     make(chan struct{}),
		exited:         make(chan struct{}),
		opts:           optv,
	}

	if err := s.start(); err != nil {
		return nil, fmt.Errorf("could not start: %w", err)
	}

	return s, nil
}

func TestErrorHandler(t *testing.T) ErrorHandler {
	return func(s *Session, err error) error {
		snapshot := "(no terminal)"
		if s != nil {
			snapshot = s.Snapshot()
		}
		t.Errorf("Error encountered: %s\nSnapshot: %s\nStack: %s", unwrapErrorMessage(err), snapshot, debug.Stack())
		return err
	}
}

func SilenceErrorHandler() ErrorHandler {
	return func(_ *Session, err error) error {
		return err
	}
}

func OptVerboseLogger() SetOpt {
	return OptLogger(VerboseLogger)
}

func OptLogger(logger *log.Logger) SetOpt {
	return func(o *Opts) error {
		o.Logger = logger
		return nil
	}
}

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Write(p []byte) (n int, err error) {
	l.t.Log(string(p))
	return len(p), nil
}

func OptSetTest(t *testing.T) SetOpt {
	return func(o *Opts) error {
		setTest(o, t)
		return nil
	}
}

func OptErrorHandler(handler ErrorHandler) SetOpt {
	return func(o *Opts) error {
		o.ExpectErrorHandler = handler
		return nil
	}
}

func OptTestErrorHandler(t *testing.T) SetOpt {
	return OptErrorHandler(TestErrorHandler(t))
}

func OptSilenceErrorHandler() SetOpt {
	return OptErrorHandler(SilenceErrorHandler())
}

func OptCols(cols int) SetOpt {
	return func(o *Opts) error {
		o.Cols = cols
		return nil
	}
}

// OptRows sets the number of rows for the pty, increase this if you find your output appears to stop prematurely
// appears to only make a difference on Windows. Linux/Mac will happily function with a single row
func OptRows(rows int) SetOpt {
	return func(o *Opts) error {
		o.Rows = rows
		return nil
	}
}

// OptPosix informs termchain to treat the command as a posix command
// This will affect line endings as well as output sanitization
func OptPosix(v bool) SetOpt {
	return func(o *Opts) error {
		o.Posix = v
		return nil
	}
}

// OptDefaultTimeout sets the timeout used by expectations that do not set their own
func OptDefaultTimeout(duration time.Duration) SetOpt {
	return func(o *Opts) error {
		if duration <= 0 {
			return fmt.Errorf("default timeout must be positive, got %s", duration)
		}
		o.DefaultTimeout = duration
		return nil
	}
}

func OptOutputSanitizer(f cleanerFunc) SetOpt {
	return func(o *Opts) error {
		o.OutputSanitizer = f
		return nil
	}
}

func OptNormalizedLineEnds(v bool) SetOpt {
	return func(o *Opts) error {
		o.NormalizedLineEnds = v
		return nil
	}
}

// OptStripColors removes terminal escape sequences from the output before it is matched against
func OptStripColors(v bool) SetOpt {
	return func(o *Opts) error {
		o.StripColors = v
		return nil
	}
}

// OptDir sets the working directory of the command
func OptDir(dir string) SetOpt {
	return func(o *Opts) error {
		o.Dir = dir
		return nil
	}
}

// OptEnv appends KEY=VALUE entries to the environment inherited by the command
func OptEnv(env ...string) SetOpt {
	return func(o *Opts) error {
		o.Env = append(o.Env, env...)
		return nil
	}
}

// OptExpectExitCode sets the exit code a chain expects once all of its steps have run
func OptExpectExitCode(code int) SetOpt {
	return func(o *Opts) error {
		o.ExpectExitCode = code
		return nil
	}
}

// OptSkipExitCheck makes a chain succeed as soon as its last step ran, without waiting for the process to exit
func OptSkipExitCheck() SetOpt {
	return func(o *Opts) error {
		o.SkipExitCheck = true
		return nil
	}
}

func OptRedactionPlaceholder(placeholder string) SetOpt {
	return func(o *Opts) error {
		if placeholder == "" {
			return errors.New("redaction placeholder cannot be empty")
		}
		o.RedactionPlaceholder = placeholder
		return nil
	}
}

func (s *Session) SetErrorHandler(handler ErrorHandler) {
	s.opts.ExpectErrorHandler = handler
}

func (s *Session) SetLogger(logger *log.Logger) {
	s.opts.Logger = logger
}

func (s *Session) SetTest(t *testing.T) {
	setTest(s.opts, t)
}

func setTest(o *Opts, t *testing.T) {
	o.Logger = log.New(&testLogger{t}, "TermChain: ", log.LstdFlags|log.Lshortfile)
	o.ExpectErrorHandler = TestErrorHandler(t)
}

func (s *Session) start() error {
	if s.ptmx != nil {
		return fmt.Errorf("already started")
	}

	ptmx, err := pty.StartWithSize(s.cmd, &pty.Winsize{Cols: uint16(s.opts.Cols), Rows: uint16(s.opts.Rows)})
	if err != nil {
		return fmt.Errorf("%w: could not start pty: %w", ErrSpawn, err)
	}
	s.ptmx = ptmx
	s.opts.Logger.Printf("started %s (pid %d)", s.cmd.String(), s.cmd.Process.Pid)

	s.term = vt10x.New(vt10x.WithWriter(ptmx), vt10x.WithSize(s.opts.Cols, s.opts.Rows))

	go func() {
		defer close(s.exited)
		ps, err := s.cmd.Process.Wait()
		s.exitResult = cmdExit{ProcessState: ps, Err: err}
		s.opts.Logger.Printf("process exited with code %d", s.exitCode())
	}()

	go func() {
		defer close(s.listenDone)
		defer s.opts.Logger.Printf("termchain finished listening")
		s.listenErr = s.outputProducer.Listen(s.ptmx, s.term)
	}()

	return nil
}

// Wait waits for the process to exit and for all of its output to be consumed, then releases the pty.
// Unlike ExpectExit* it does not assert anything about the exit code.
func (s *Session) Wait(timeout time.Duration) (rerr error) {
	s.opts.Logger.Println("wait called")
	defer s.opts.Logger.Println("wait closed")
	defer s.errorHandler(&rerr)

	deadline := time.After(timeout)
	select {
	case <-s.exited:
	case <-deadline:
		return fmt.Errorf("timeout after %s while waiting for the process to exit: %w", timeout, TimeoutError)
	}
	select {
	case <-s.listenDone:
	case <-deadline:
		return fmt.Errorf("timeout after %s while waiting for the pty to close: %w", timeout, TimeoutError)
	}

	return s.Close()
}

// Close terminates the process tree if it is still running and releases the pty.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close()
	})
	return s.closeErr
}

func (s *Session) close() error {
	s.opts.Logger.Println("closing session")
	defer s.opts.Logger.Println("closed session")

	var errs []error
	if !s.hasExited() {
		s.opts.Logger.Printf("terminating process tree of pid %d", s.cmd.Process.Pid)
		if err := terminateProcessTree(s.cmd.Process.Pid); err != nil {
			s.opts.Logger.Printf("could not terminate process tree: %v", err)
			if kerr := s.cmd.Process.Kill(); kerr != nil {
				errs = append(errs, fmt.Errorf("could not kill process: %w", kerr))
			}
		}
	}

	select {
	case <-s.exited:
	case <-time.After(closeTimeout):
		errs = append(errs, fmt.Errorf("process %d did not exit within %s", s.cmd.Process.Pid, closeTimeout))
	}

	if err := s.ptmx.Close(); err != nil {
		if syscallErrorCode(err) == 0 {
			s.opts.Logger.Println("Ignoring 'The operation completed successfully' error")
		} else if errors.Is(err, ERR_ACCESS_DENIED) {
			// Ignore access denied error - means process has already finished
			s.opts.Logger.Println("Ignoring access denied error")
		} else {
			errs = append(errs, fmt.Errorf("failed to close pty: %w", err))
		}
	}

	select {
	case <-s.listenDone:
		if s.listenErr != nil {
			errs = append(errs, s.listenErr)
		}
	case <-time.After(closeTimeout):
		errs = append(errs, fmt.Errorf("output listener did not stop within %s", closeTimeout))
	}

	return errors.Join(errs...)
}

// Cmd returns the underlying command
func (s *Session) Cmd() *exec.Cmd {
	return s.cmd
}

// Snapshot returns a string containing a terminal snapshot as a user would see it in a "real" terminal. Values sent
// while recording was paused are redacted, even when the terminal wrapped them over several rows.
func (s *Session) Snapshot() string {
	return s.transcript.RedactScreen(s.term.String())
}

// PendingOutput returns any output produced that has not yet been matched against
func (s *Session) PendingOutput() string {
	return string(s.outputProducer.PendingOutput())
}

// Output returns all output produced so far. Unlike Transcript it is not redacted.
func (s *Session) Output() string {
	return string(s.outputProducer.Output())
}

// Transcript returns the diagnostic record of the session
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// PauseRecording hides any input sent from now on from the transcript and logs
func (s *Session) PauseRecording() {
	s.opts.Logger.Println("recording paused")
	s.transcript.Pause()
}

// ResumeRecording undoes PauseRecording. Values sent while paused remain redacted.
func (s *Session) ResumeRecording() {
	s.transcript.Resume()
	s.opts.Logger.Println("recording resumed")
}

// ExitCode returns the exit code of the process, or -1 if it is still running
func (s *Session) ExitCode() int {
	if !s.hasExited() {
		return -1
	}
	return s.exitCode()
}

func (s *Session) hasExited() bool {
	select {
	case <-s.exited:
		return true
	default:
		return false
	}
}

// exitCode must only be called once s.exited is closed
func (s *Session) exitCode() int {
	if s.exitResult.ProcessState == nil {
		return -1
	}
	return s.exitResult.ProcessState.ExitCode()
}

func (s *Session) errorHandler(rerr *error) {
	err := *rerr
	if err == nil {
		return
	}

	*rerr = s.opts.ExpectErrorHandler(s, err)
}
