package termchain

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Launcher locates the executable under test and starts it with a shared set of options. Resolution order is
// Path, then the environment variable named by EnvVar, then Name looked up on PATH.
type Launcher struct {
	Path   string
	EnvVar string
	Name   string
	Dir    string
	Env    []string
	Opts   []SetOpt
}

// Resolve returns the path of the executable, or an error naming every rule it tried
func (l *Launcher) Resolve() (string, error) {
	var tried []string

	if l.Path != "" {
		if err := checkExecutable(l.Path); err != nil {
			return "", fmt.Errorf("%w: %w", ErrSpawn, err)
		}
		return l.Path, nil
	}
	tried = append(tried, "explicit path")

	if l.EnvVar != "" {
		if path := os.Getenv(l.EnvVar); path != "" {
			if err := checkExecutable(path); err != nil {
				return "", fmt.Errorf("%w: %s: %w", ErrSpawn, l.EnvVar, err)
			}
			return path, nil
		}
		tried = append(tried, "$"+l.EnvVar)
	}

	if l.Name != "" {
		path, err := exec.LookPath(l.Name)
		if err == nil {
			return path, nil
		}
		tried = append(tried, fmt.Sprintf("%q on PATH", l.Name))
	}

	return "", fmt.Errorf("%w: could not resolve executable, tried %s", ErrSpawn, strings.Join(tried, ", "))
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New(path + " is a directory")
	}
	return nil
}

// Spawn resolves the executable and starts it with args. The launcher options come first so that opts can
// override them.
func (l *Launcher) Spawn(args []string, opts ...SetOpt) *Chain {
	path, err := l.Resolve()
	if err != nil {
		optv, oerr := newOpts(append(l.options(), opts...)...)
		if oerr != nil {
			optv = NewOpts()
		}
		optv.Logger.Printf("could not resolve executable: %v", err)
		return &Chain{opts: optv, spawnErr: err}
	}
	return Spawn(path, args, append(l.options(), opts...)...)
}

func (l *Launcher) options() []SetOpt {
	var opts []SetOpt
	if l.Dir != "" {
		opts = append(opts, OptDir(l.Dir))
	}
	if len(l.Env) > 0 {
		opts = append(opts, OptEnv(l.Env...))
	}
	return append(opts, l.Opts...)
}
