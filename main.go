// This is the main-driver for our compiler.

package main

import (
	"fmt"
	"os"

	"github.com/skx/ttc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
