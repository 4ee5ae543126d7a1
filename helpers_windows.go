package termchain

import (
	"bytes"
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

var ERR_ACCESS_DENIED = windows.ERROR_ACCESS_DENIED

// cleanPtySnapshot drops the virtual terminal sequences conpty paints even plain output with
// https://learn.microsoft.com/en-us/windows/console/console-virtual-terminal-sequences
func cleanPtySnapshot(b []byte, isPosix bool) []byte {
	b = bytes.TrimRight(b, "\x00")
	if isPosix {
		return b
	}
	clean, rest := stripEscapeSequences(b)
	return append(clean, rest...)
}

func syscallErrorCode(err error) int {
	if errv, ok := err.(syscall.Errno); ok {
		return int(errv)
	}
	return 0
}

// signalProcessGroup is a no-op, windows has no process groups to signal and the tree walk already covered it
func signalProcessGroup(_ int) error {
	return nil
}

func isEndOfOutput(err error) bool {
	return isClosedError(err) || errors.Is(err, windows.ERROR_BROKEN_PIPE)
}
