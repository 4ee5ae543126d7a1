package scenario

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ActiveState/termchain"
	"go.uber.org/goleak"
)

// testerPath is the mock interactive program built from cmd/tester
var testerPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "scenario-tester")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create temp dir: %v\n", err)
		os.Exit(1)
	}

	testerPath = filepath.Join(dir, "tester")
	if runtime.GOOS == "windows" {
		testerPath += ".exe"
	}
	if out, err := exec.Command("go", "build", "-o", testerPath, "../cmd/tester").CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "could not build tester: %v\n%s", err, out)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	goleak.VerifyTestMain(m, goleak.Cleanup(func(int) {
		os.RemoveAll(dir)
	}))
}

func newLauncher(t *testing.T, env ...string) *termchain.Launcher {
	logger := log.New(os.Stderr, filepath.Base(t.Name())+": ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
	return &termchain.Launcher{
		Path: testerPath,
		Env:  env,
		Opts: []termchain.SetOpt{termchain.OptLogger(logger)},
	}
}

// unresolvable never finds an executable, a scenario that gets as far as launching fails with a spawn error
var unresolvable = &termchain.Launcher{Name: "scenario-binary-that-does-not-exist"}
