//go:build !windows
// +build !windows

package termchain

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var ERR_ACCESS_DENIED = errors.New("only used on windows, this should never match")

func cleanPtySnapshot(b []byte, _ bool) []byte {
	return bytes.TrimRight(b, "\x00")
}

func syscallErrorCode(_ error) int {
	return -1
}

// signalProcessGroup kills the process group led by pid; the pty gives the command its own session so the group
// contains everything started from its terminal
func signalProcessGroup(pid int) error {
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("could not signal process group %d: %w", pid, err)
	}
	return nil
}

// isEndOfOutput reports whether a pty read error just means the other side hung up
func isEndOfOutput(err error) bool {
	return isClosedError(err) || errors.Is(err, unix.EIO)
}
