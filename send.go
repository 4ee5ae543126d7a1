package termchain

import (
	"fmt"
	"time"
)

// keystrokeDelay separates consecutive writes so that prompt libraries reading key by key see them as separate
// key presses rather than one pasted chunk
const keystrokeDelay = time.Millisecond

const exitGracePeriod = time.Second

// Send sends the given value to the terminal, as if a user typed it
func (s *Session) Send(value string) (rerr error) {
	defer s.errorHandler(&rerr)
	return s.send(value, false)
}

// SendLine sends a new line to the terminal, as if a user typed it, the newline sequence is OS aware
func (s *Session) SendLine(value string) (rerr error) {
	defer s.errorHandler(&rerr)
	return s.sendLine(value, false)
}

// SendCarriageReturn sends a lone carriage return, which accepts the default value of most prompts
func (s *Session) SendCarriageReturn() (rerr error) {
	defer s.errorHandler(&rerr)
	return s.send(KeyEnter, false)
}

// SendKeys sends the given key sequences one key press at a time, see the Key* constants and LookupKey
func (s *Session) SendKeys(keys ...string) (rerr error) {
	defer s.errorHandler(&rerr)
	for _, key := range keys {
		if err := s.send(key, false); err != nil {
			return err
		}
	}
	return nil
}

// SendCtrlC tries to emulate what would happen in an interactive shell, when the user presses Ctrl-C
// Note: On Windows the Ctrl-C event is only reliable caught when the receiving process is
// listening for os.Interrupt signals.
func (s *Session) SendCtrlC() {
	s.opts.Logger.Printf("SendCtrlC\n")
	if err := s.SendKeys(KeyCtrlC); err != nil {
		s.opts.Logger.Printf("could not send ctrl+c: %v", err)
	}
}

func (s *Session) lineSep() string {
	if !s.opts.Posix {
		return "\r\n"
	}
	return lineSep
}

func (s *Session) sendLine(value string, redact bool) error {
	return s.send(value+s.lineSep(), redact)
}

func (s *Session) send(value string, redact bool) error {
	if s.hasExited() {
		return fmt.Errorf("process exited with code %d before input could be sent: %w", s.exitCode(), ErrPrematureExit)
	}

	recorded := s.transcript.recordInput(value, redact)
	s.opts.Logger.Printf("Send: %q\n", s.transcript.Redact(recorded))

	time.Sleep(keystrokeDelay)
	if _, err := s.ptmx.Write([]byte(value)); err != nil {
		// Writes fail once the process hung up on the pty, which can be just before it is reaped
		select {
		case <-s.exited:
			return fmt.Errorf("process exited with code %d while input was sent: %w", s.exitCode(), ErrPrematureExit)
		case <-time.After(exitGracePeriod):
			return fmt.Errorf("could not write to pty: %w", err)
		}
	}
	return nil
}
