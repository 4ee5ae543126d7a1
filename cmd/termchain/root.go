package main

import (
	"os"

	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "termchain",
	Short: "Drive interactive command line programs from scripted prompts and answers",
	Long:  "Drive interactive command line programs on a pseudo-terminal, waiting for prompts and answering them as described by a YAML script",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every step, with sent secrets redacted")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}
