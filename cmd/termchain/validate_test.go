package main

import (
	"strings"
	"testing"
)

func TestValidateCmd(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := writeScript(t, "command: ./mycli\nsteps:\n  - wait: \"Enter name:\"\n  - sendLine: alice\n")

		stdout, _, exitCode := execute(t, "validate", path)

		if exitCode != -1 {
			t.Fatalf("Expected success, got exit code %d", exitCode)
		}
		if want := path + " is valid: 2 steps"; !strings.Contains(stdout.String(), want) {
			t.Errorf("Expected output to contain %q, got %q", want, stdout.String())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		path := writeScript(t, "steps:\n  - wait: hello\n    sendLine: world\n  - key: hyperspace\n")

		_, stderr, exitCode := execute(t, "validate", path)

		if exitCode != 1 {
			t.Fatalf("Expected exit code 1, got %d", exitCode)
		}
		for _, want := range []string{"step 1: more than one action", "step 2: unknown key: hyperspace"} {
			if !strings.Contains(stderr.String(), want) {
				t.Errorf("Expected error output to contain %q, got %q", want, stderr.String())
			}
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, stderr, exitCode := execute(t, "validate", "does-not-exist.yaml")

		if exitCode != 1 {
			t.Fatalf("Expected exit code 1, got %d", exitCode)
		}
		if !strings.Contains(stderr.String(), "could not read script") {
			t.Errorf("Expected a read error, got %q", stderr.String())
		}
	})
}
