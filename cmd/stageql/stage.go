package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var stageCompartment string
var stageFile string

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage a JSON payload into a compartment",
	Long: `Reads a JSON payload from --file (or stdin when --file is omitted) and
stages it into the named compartment, creating it if it does not yet
exist. When --compartment is omitted, a fresh opaque identifier is
generated and printed alongside the result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readPayload(stageFile)
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}

		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("parsing payload JSON: %w", err)
		}

		id := stageCompartment
		if id == "" {
			id = uuid.NewString()
		}

		result, err := manager.Stage(ctx(), id, payload)
		if err != nil {
			exitf(exitSysError, "stage: %s", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "compartment: %s\n", id)
		return printResult(result)
	},
}

// readPayload reads the full payload from path, or from stdin when path is
// empty or "-".
func readPayload(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	stageCmd.Flags().StringVar(&stageCompartment, "compartment", "", "compartment access identifier (generated when omitted)")
	stageCmd.Flags().StringVar(&stageFile, "file", "", "path to the JSON payload (default: stdin)")
}
