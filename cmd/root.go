// Package cmd implements the ttc command-line interface atop cobra:
// a root command plus a single "build" subcommand.
package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ttc",
	Short: "A compiler for the TTC language",
	Long: `ttc compiles a single TTC source file into x86-64 NASM
assembly. TTC has no functions and no I/O: a compiled program's exit
code is the value of its last-referenced variable.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
