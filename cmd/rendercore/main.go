package main

import (
	"fmt"
	"os"

	"github.com/ncobase/rendercore/cmd/rendercore/commands"
)

func main() {
	// Execute the root command
	rootCmd := commands.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
