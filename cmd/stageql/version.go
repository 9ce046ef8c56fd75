package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the stageql release version.
const Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stageql version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "stageql v%s\nmodule: github.com/biostage/biostage\n", Version)
		return nil
	},
}
