package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ActiveState/termchain"
	"github.com/ActiveState/termchain/scenario"
	"github.com/spf13/cobra"
)

// cliPathEnv names the executable to drive when neither the script nor --cli-path does
const cliPathEnv = "TERMCHAIN_CLI_PATH"

var (
	runTimeout time.Duration
	runCLIPath string
	runDir     string
)

var runCmd = &cobra.Command{
	Use:          "run <script.yaml>",
	Short:        "Run a script against its command",
	Long:         "Run a script, answering the prompts of its command in order. The redacted transcript is printed when a step fails.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := scenario.LoadScript(args[0])
		if err != nil {
			return err
		}

		opts := []termchain.SetOpt{}
		if verbose {
			opts = append(opts, termchain.OptVerboseLogger())
		}
		if runTimeout > 0 {
			opts = append(opts, termchain.OptDefaultTimeout(runTimeout))
		}
		if runDir != "" {
			opts = append(opts, termchain.OptDir(runDir))
		}

		launcher := &termchain.Launcher{Path: runCLIPath, EnvVar: cliPathEnv}
		err = script.Run(cmd.Context(), launcher, opts...)

		var chainErr *termchain.ChainError
		if errors.As(err, &chainErr) && chainErr.Transcript != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Transcript:\n%s\n", chainErr.Transcript)
		}
		if err != nil {
			return fmt.Errorf("script %s failed: %w", args[0], err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Script completed successfully.")
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Default time to wait for each prompt")
	runCmd.Flags().StringVar(&runCLIPath, "cli-path", "", "Executable to run when the script has no command, defaults to $"+cliPathEnv)
	runCmd.Flags().StringVar(&runDir, "dir", "", "Working directory of the command, overrides the script")
	rootCmd.AddCommand(runCmd)
}
