package scenario

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/ActiveState/termchain"
	"github.com/goccy/go-yaml"
)

// Script is a chain described in YAML:
//
//	command: ./mycli
//	args: [configure]
//	stripColors: true
//	steps:
//	  - wait: "Enter name:"
//	  - sendLine: alice
//	  - wait: "Specify the region"
//	  - select: {target: us-west-2, options: [us-east-1, us-east-2, us-west-2]}
//	  - pauseRecording: true
//	  - sendLine: ${SECRET}
//	  - resumeRecording: true
//
// Values sent by send and sendLine steps have ${VAR} references expanded from the environment.
type Script struct {
	Command       string       `yaml:"command"`
	Args          []string     `yaml:"args"`
	Dir           string       `yaml:"dir"`
	Env           []string     `yaml:"env"`
	Timeout       string       `yaml:"timeout"`
	StripColors   bool         `yaml:"stripColors"`
	ExitCode      int          `yaml:"exitCode"`
	SkipExitCheck bool         `yaml:"skipExitCheck"`
	Steps         []ScriptStep `yaml:"steps"`
}

// ScriptStep holds exactly one action
type ScriptStep struct {
	Wait               *string       `yaml:"wait"`
	WaitRe             *string       `yaml:"waitRe"`
	Timeout            string        `yaml:"timeout"`
	Send               *string       `yaml:"send"`
	SendLine           *string       `yaml:"sendLine"`
	SendCarriageReturn bool          `yaml:"sendCarriageReturn"`
	SendConfirmYes     bool          `yaml:"sendConfirmYes"`
	SendConfirmNo      bool          `yaml:"sendConfirmNo"`
	Key                *string       `yaml:"key"`
	Select             *ScriptSelect `yaml:"select"`
	PauseRecording     bool          `yaml:"pauseRecording"`
	ResumeRecording    bool          `yaml:"resumeRecording"`
}

type ScriptSelect struct {
	Target  string   `yaml:"target"`
	Options []string `yaml:"options"`
}

// LoadScript reads and validates the script at path
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read script: %w", err)
	}
	script, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

// ParseScript decodes a script, rejecting unknown fields, and validates it without requiring a command
func ParseScript(data []byte) (*Script, error) {
	script := &Script{}
	if err := yaml.UnmarshalWithOptions(data, script, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("could not parse script: %w", err)
	}
	if err := script.Validate(false); err != nil {
		return nil, err
	}
	return script, nil
}

// Validate reports every problem of the script at once. The command is only mandatory when requireCommand is set,
// a launcher can supply it otherwise.
func (s *Script) Validate(requireCommand bool) error {
	cerr := &ConfigError{}
	if requireCommand {
		cerr.Missing = missingFields(field{"command", s.Command})
	}
	if len(s.Steps) == 0 {
		cerr.Missing = append(cerr.Missing, "steps")
	}
	if s.Timeout != "" {
		if _, err := parseTimeout(s.Timeout); err != nil {
			cerr.Problems = append(cerr.Problems, fmt.Sprintf("timeout: %v", err))
		}
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			cerr.Problems = append(cerr.Problems, fmt.Sprintf("step %d: %v", i+1, err))
		}
	}
	if cerr.empty() {
		return nil
	}
	return cerr
}

func parseTimeout(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}

func (st ScriptStep) actions() []string {
	var actions []string
	add := func(name string, set bool) {
		if set {
			actions = append(actions, name)
		}
	}
	add("wait", st.Wait != nil)
	add("waitRe", st.WaitRe != nil)
	add("send", st.Send != nil)
	add("sendLine", st.SendLine != nil)
	add("sendCarriageReturn", st.SendCarriageReturn)
	add("sendConfirmYes", st.SendConfirmYes)
	add("sendConfirmNo", st.SendConfirmNo)
	add("key", st.Key != nil)
	add("select", st.Select != nil)
	add("pauseRecording", st.PauseRecording)
	add("resumeRecording", st.ResumeRecording)
	return actions
}

func (st ScriptStep) validate() error {
	actions := st.actions()
	switch {
	case len(actions) == 0:
		return fmt.Errorf("no action")
	case len(actions) > 1:
		return fmt.Errorf("more than one action: %v", actions)
	}

	if st.Timeout != "" {
		if st.Wait == nil && st.WaitRe == nil {
			return fmt.Errorf("timeout is only valid on wait and waitRe")
		}
		if _, err := parseTimeout(st.Timeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}

	switch {
	case st.Wait != nil && *st.Wait == "":
		return fmt.Errorf("wait: empty pattern")
	case st.WaitRe != nil:
		if _, err := regexp.Compile(*st.WaitRe); err != nil {
			return fmt.Errorf("waitRe: %w", err)
		}
	case st.Key != nil:
		if _, err := termchain.LookupKey(*st.Key); err != nil {
			return err
		}
	case st.Select != nil:
		if _, err := termchain.SelectionKeys(st.Select.Target, st.Select.Options); err != nil {
			return err
		}
	}
	return nil
}

// apply appends the step to chain, the step must have been validated
func (st ScriptStep) apply(chain *termchain.Chain) {
	var opts []termchain.SetExpectOpt
	if st.Timeout != "" {
		d, _ := parseTimeout(st.Timeout)
		opts = append(opts, termchain.OptExpectTimeout(d))
	}

	switch {
	case st.Wait != nil:
		chain.Wait(*st.Wait, opts...)
	case st.WaitRe != nil:
		chain.WaitRe(regexp.MustCompile(*st.WaitRe), opts...)
	case st.Send != nil:
		chain.Send(os.ExpandEnv(*st.Send))
	case st.SendLine != nil:
		chain.SendLine(os.ExpandEnv(*st.SendLine))
	case st.SendCarriageReturn:
		chain.SendCarriageReturn()
	case st.SendConfirmYes:
		chain.SendConfirmYes()
	case st.SendConfirmNo:
		chain.SendConfirmNo()
	case st.Key != nil:
		chain.SendKey(*st.Key)
	case st.Select != nil:
		chain.Select(st.Select.Target, st.Select.Options)
	case st.PauseRecording:
		chain.PauseRecording()
	case st.ResumeRecording:
		chain.ResumeRecording()
	}
}

// Options returns the session options the script asks for
func (s *Script) Options() []termchain.SetOpt {
	var opts []termchain.SetOpt
	if s.Dir != "" {
		opts = append(opts, termchain.OptDir(s.Dir))
	}
	if len(s.Env) > 0 {
		opts = append(opts, termchain.OptEnv(s.Env...))
	}
	if s.Timeout != "" {
		d, _ := parseTimeout(s.Timeout)
		opts = append(opts, termchain.OptDefaultTimeout(d))
	}
	if s.StripColors {
		opts = append(opts, termchain.OptStripColors(true))
	}
	if s.SkipExitCheck {
		opts = append(opts, termchain.OptSkipExitCheck())
	}
	return append(opts, termchain.OptExpectExitCode(s.ExitCode))
}

// Chain validates the script and starts its command. The command comes from the script when it names one and
// from launcher otherwise. opts are applied after the script's own options.
func (s *Script) Chain(launcher *termchain.Launcher, opts ...termchain.SetOpt) (*termchain.Chain, error) {
	if err := s.Validate(launcher == nil); err != nil {
		return nil, err
	}

	opts = append(s.Options(), opts...)

	var chain *termchain.Chain
	if s.Command != "" {
		chain = termchain.Spawn(s.Command, s.Args, opts...)
	} else {
		chain = launcher.Spawn(s.Args, opts...)
	}

	for _, step := range s.Steps {
		step.apply(chain)
	}
	return chain, nil
}

// Run builds the chain and executes it
func (s *Script) Run(ctx context.Context, launcher *termchain.Launcher, opts ...termchain.SetOpt) error {
	chain, err := s.Chain(launcher, opts...)
	if err != nil {
		return err
	}
	return chain.Execute(ctx)
}
