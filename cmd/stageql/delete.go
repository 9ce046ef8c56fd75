package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCompartment string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a compartment and its staged data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteCompartment == "" {
			return fmt.Errorf("--compartment is required")
		}

		if err := manager.Delete(deleteCompartment); err != nil {
			exitf(exitUserError, "delete: %s", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted compartment: %s\n", deleteCompartment)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteCompartment, "compartment", "", "compartment access identifier")
}
