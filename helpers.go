package termchain

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

type voidWriter struct{}

func (v voidWriter) Write(p []byte) (n int, err error) { return len(p), nil }

var lineSep = "\n"

func init() {
	if runtime.GOOS == "windows" {
		lineSep = "\r\n"
	}
}

type cmdExit struct {
	ProcessState *os.ProcessState
	Err          error
}

// terminateProcessTree kills pid and every process it spawned, descendants first so that nothing gets re-parented
// before we get to it
func terminateProcessTree(pid int) error {
	procs, err := processTree(int32(pid))
	if err != nil {
		return fmt.Errorf("could not inspect process tree of %d: %w", pid, err)
	}

	var errs []error
	for i := len(procs) - 1; i >= 0; i-- {
		if err := procs[i].Kill(); err != nil && !errors.Is(err, process.ErrorProcessNotRunning) {
			errs = append(errs, fmt.Errorf("could not kill %d: %w", procs[i].Pid, err))
		}
	}

	// Catch anything that was forked while we were walking the tree
	if err := signalProcessGroup(pid); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// processTree returns the process identified by pid followed by all of its descendants, parents before children
func processTree(pid int32) ([]*process.Process, error) {
	root, err := process.NewProcess(pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, nil
		}
		return nil, err
	}

	tree := []*process.Process{root}
	for i := 0; i < len(tree); i++ {
		children, err := tree[i].Children()
		if err != nil {
			// Children reports processes without children as an error
			continue
		}
		tree = append(tree, children...)
	}
	return tree, nil
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

func unwrapErrorMessage(err error) string {
	msg := []string{}
	for err != nil {
		msg = append(msg, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(msg, " -> ")
}
