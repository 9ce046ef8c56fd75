package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chunksCompartment string

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Report chunk storage statistics for a compartment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chunksCompartment == "" {
			return fmt.Errorf("--compartment is required")
		}

		result, err := manager.ChunkingStats(ctx(), chunksCompartment)
		if err != nil {
			exitf(exitUserError, "chunks: %s", err)
		}
		return printResult(result)
	},
}

func init() {
	chunksCmd.Flags().StringVar(&chunksCompartment, "compartment", "", "compartment access identifier")
}
