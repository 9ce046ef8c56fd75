package main

import (
	"encoding/json"
	"fmt"
)

// printResult renders v as pretty JSON when --json is set, otherwise as a
// Go-syntax dump; both are diagnostic output for a CLI whose primary
// consumer is the person running it at a terminal.
func printResult(v any) error {
	if flags.jsonMode {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("%+v\n", v)
	return nil
}
