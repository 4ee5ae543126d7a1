package main

import (
	"fmt"

	"github.com/ActiveState/termchain/scenario"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:          "validate <script.yaml>",
	Short:        "Check a script without running it",
	Long:         "Parse a script and report every missing field and invalid step, without launching anything",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := scenario.LoadScript(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d steps\n", args[0], len(script.Steps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
