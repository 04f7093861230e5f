// Package cmd implements the command-line interface for the ingestion
// service. It provides the root command and subcommands for one-shot
// and scheduled pipeline runs.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cmdcommon "github.com/citypulse/cityingest/cmd/common"
	"github.com/citypulse/cityingest/cmd/run"
	"github.com/citypulse/cityingest/cmd/schedule"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// rootCmd represents the root command for the cityingest CLI.
	rootCmd = &cobra.Command{
		Use:   "cityingest",
		Short: "City data ingestion pipeline",
		Long: `cityingest pulls places and events from a structured API and scraped
listing sites, normalizes them, and inserts new records into Postgres.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are visible to Viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("cityingest version %s\n", version)
		},
	})

	rootCmd.AddCommand(run.Command(newDeps))
	rootCmd.AddCommand(schedule.Command(newDeps))
}

// version is set at build time via -ldflags.
var version = "dev"

// newDeps builds command dependencies from the global flags.
func newDeps() (*cmdcommon.Deps, error) {
	return cmdcommon.NewDeps(cfgFile, debug)
}
