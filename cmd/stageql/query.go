package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryCompartment string
var querySQL string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a read-only SQL query against a compartment",
	Long: `Runs a single SQL statement through the read-only analytic gate:
SELECT/CTE/PRAGMA/EXPLAIN statements and temporary table/view
definitions are allowed, anything that would mutate staged data is
rejected. Chunked text and JSON content is transparently reassembled
in the result rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryCompartment == "" {
			return fmt.Errorf("--compartment is required")
		}
		if querySQL == "" {
			return fmt.Errorf("--sql is required")
		}

		result, err := manager.Query(ctx(), queryCompartment, querySQL)
		if err != nil {
			exitf(exitUserError, "query: %s", err)
		}
		return printResult(result)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryCompartment, "compartment", "", "compartment access identifier")
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "SQL statement to run")
}
