package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var introspectCompartment string

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Summarize the tables and views inferred for a compartment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if introspectCompartment == "" {
			return fmt.Errorf("--compartment is required")
		}

		result, err := manager.Introspect(ctx(), introspectCompartment)
		if err != nil {
			exitf(exitUserError, "introspect: %s", err)
		}
		return printResult(result)
	},
}

func init() {
	introspectCmd.Flags().StringVar(&introspectCompartment, "compartment", "", "compartment access identifier")
}
