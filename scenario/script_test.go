package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ActiveState/termchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseScript(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantMissing  []string
		wantProblems []string
		wantErr      string
	}{
		{
			name: "Valid",
			data: `
command: ./mycli
args: [configure]
timeout: 5s
stripColors: true
steps:
  - wait: "Specify the AWS Region"
    timeout: 1s
  - select: {target: us-west-2, options: [us-east-1, us-east-2, us-west-2]}
  - waitRe: 'user name:\s*$'
  - key: down
  - pauseRecording: true
  - sendLine: ${SECRET}
  - resumeRecording: true
  - sendConfirmYes: true
`,
		},
		{
			name:    "Unknown field",
			data:    "steps:\n  - wiat: hello\n",
			wantErr: "could not parse script",
		},
		{
			name:        "No steps",
			data:        "command: ./mycli\n",
			wantMissing: []string{"steps"},
		},
		{
			name: "Step problems",
			data: `
timeout: soon
steps:
  - wait: hello
    sendLine: world
  - sendCarriageReturn: false
  - sendLine: hi
    timeout: 1s
  - waitRe: "("
  - key: hyperspace
  - select: {target: d, options: [a, b, c]}
  - wait: ""
  - wait: hello
    timeout: -1s
`,
			wantProblems: []string{
				"timeout: ",
				"step 1: more than one action: [wait sendLine]",
				"step 2: no action",
				"step 3: timeout is only valid on wait and waitRe",
				"step 4: waitRe: ",
				"step 5: ",
				"step 6: ",
				"step 7: wait: empty pattern",
				"step 8: timeout: must be positive",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := ParseScript([]byte(tt.data))
			if tt.wantErr == "" && tt.wantMissing == nil && tt.wantProblems == nil {
				require.NoError(t, err)
				require.NotNil(t, script)
				return
			}
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantMissing, cerr.Missing)
			require.Len(t, cerr.Problems, len(tt.wantProblems), "problems: %v", cerr.Problems)
			for i, want := range tt.wantProblems {
				assert.Contains(t, cerr.Problems[i], want)
			}
		})
	}
}

func Test_Script_Steps(t *testing.T) {
	script, err := ParseScript([]byte(`
steps:
  - wait: "Enter name:"
  - pauseRecording: true
  - sendLine: secret
  - resumeRecording: true
  - key: ctrl+c
  - sendConfirmNo: true
`))
	require.NoError(t, err)

	chain, err := script.Chain(unresolvable)
	require.NoError(t, err)

	var names []string
	for _, step := range chain.Steps() {
		names = append(names, step.String())
	}
	assert.Equal(t, []string{
		`wait "Enter name:"`,
		"pause recording",
		"send (redacted)",
		"resume recording",
		"key ctrl+c",
		"confirm no",
		"carriage return",
	}, names)
}

func Test_Script_RequiresCommandWithoutLauncher(t *testing.T) {
	script := &Script{Steps: []ScriptStep{{SendCarriageReturn: true}}}
	_, err := script.Chain(nil)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"command"}, cerr.Missing)
}

func Test_Script_Run(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("SCENARIO_NAME", "carol")

	script, err := ParseScript([]byte(`
timeout: 10s
stripColors: true
steps:
  - wait: "Enter name:"
  - sendLine: ${SCENARIO_NAME}
  - waitRe: 'hello \w+'
`))
	require.NoError(t, err)
	require.NoError(t, script.Run(context.Background(), newLauncher(t)))
}

func Test_Script_Run_Command(t *testing.T) {
	skipOnWindows(t)

	script := &Script{
		Command:  testerPath,
		Args:     []string{"-exit1"},
		ExitCode: 1,
		Steps:    []ScriptStep{{Wait: strPtr("Enter name:")}},
	}
	require.NoError(t, script.Run(context.Background(), nil))

	script.ExitCode = 0
	err := script.Run(context.Background(), nil)
	var chainErr *termchain.ChainError
	require.ErrorAs(t, err, &chainErr)
	require.ErrorIs(t, err, termchain.ErrExitCode)
	assert.Equal(t, "exit", chainErr.StepName)
}

func Test_LoadScript(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadScript(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - key: hyperspace\n"), 0o644))
	_, err = LoadScript(path)
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), path)

	path = filepath.Join(dir, "ok.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - wait: ok\n"), 0o644))
	script, err := LoadScript(path)
	require.NoError(t, err)
	assert.Len(t, script.Steps, 1)
}

func strPtr(s string) *string {
	return &s
}
