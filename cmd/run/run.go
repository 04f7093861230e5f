// Package run implements the single-pass ingestion command.
package run

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdcommon "github.com/citypulse/cityingest/cmd/common"
)

// Command returns the run command.
func Command(deps func() (*cmdcommon.Deps, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one ingestion pass",
		Long: `Execute one ingestion pass: fetch every configured source, normalize
and filter records, and insert the new ones. Prints a run summary.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := deps()
			if err != nil {
				return err
			}

			app, err := cmdcommon.BuildApp(d)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			defer app.Close()

			summary := app.Pipeline.Run(cmd.Context())

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return fmt.Errorf("encode summary: %w", err)
				}
			} else {
				fmt.Println(summary.String())
			}

			if summary.TotalFailure {
				return fmt.Errorf("all %d sources failed", len(summary.Sources))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")

	return cmd
}
