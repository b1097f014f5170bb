package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Build are stamped via -ldflags at release time.
var (
	Version = "0.1.0"
	Build   = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cortex version %s (%s)\n", Version, Build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
