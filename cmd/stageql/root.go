package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/biostage/biostage/internal/compartment"
	"github.com/biostage/biostage/internal/config"
	"github.com/biostage/biostage/internal/descriptor"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds the global flag values every subcommand reads.
type rootFlags struct {
	configDir      string
	dataDir        string
	descriptorFile string
	jsonMode       bool
}

var flags rootFlags

// manager is the process-wide compartment manager, built in
// PersistentPreRunE once flags and config.yaml have been resolved.
var manager *compartment.Manager

// logger is the process-wide structured logger.
var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "stageql",
	Short: "Stage fetched JSON payloads into queryable SQL compartments",
	Long: `stageql infers a relational shape from a JSON payload, stages it into an
isolated SQLite compartment, and exposes a read-only analytic SQL gate over
the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}

		loaded, err := config.Load(config.Flags{
			ConfigDir:      flags.configDir,
			DataDir:        flags.dataDir,
			DescriptorFile: flags.descriptorFile,
		})
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		var desc *descriptor.Graph
		if loaded.DescriptorFile != "" {
			src, err := os.ReadFile(loaded.DescriptorFile)
			if err != nil {
				return fmt.Errorf("reading descriptor file: %w", err)
			}
			desc, err = descriptor.Parse(string(src))
			if err != nil {
				return fmt.Errorf("parsing descriptor file: %w", err)
			}
		}

		manager = compartment.NewManager(loaded.Config.StorageRoot, loaded.Config, desc, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if manager == nil {
			return nil
		}
		return manager.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory holding compartment SQLite files")
	rootCmd.PersistentFlags().StringVar(&flags.descriptorFile, "descriptor-file", "", "optional type-graph description file")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "print command output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(introspectCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(deleteCmd)
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

// ctx returns the background context used for every compartment operation;
// the CLI does not currently propagate cancellation from the OS.
func ctx() context.Context {
	return context.Background()
}

// exitf prints msg to stderr and exits the process with code.
func exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
