package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var columnsCompartment string
var columnsTable string

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Describe the columns of one table in a compartment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if columnsCompartment == "" {
			return fmt.Errorf("--compartment is required")
		}
		if columnsTable == "" {
			return fmt.Errorf("--table is required")
		}

		result, err := manager.TableColumns(ctx(), columnsCompartment, columnsTable)
		if err != nil {
			exitf(exitUserError, "columns: %s", err)
		}
		return printResult(result)
	},
}

func init() {
	columnsCmd.Flags().StringVar(&columnsCompartment, "compartment", "", "compartment access identifier")
	columnsCmd.Flags().StringVar(&columnsTable, "table", "", "table name")
}
