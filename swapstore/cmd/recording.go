package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/swapstore/datarecording"
	"github.com/sarchlab/swapstore/tracing"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var runID string

	reportCmd := &cobra.Command{
		Use:   "report <name>",
		Short: "Summarize a recording made with --record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSuffix(args[0], ".sqlite3")

			if _, err := os.Stat(name + ".sqlite3"); err != nil {
				return err
			}

			reader := datarecording.NewReader(name)
			defer reader.Close()

			rec, err := tracing.ReadRecording(cmd.Context(), reader, runID)
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}

			printRecording(cmd.OutOrStdout(), rec)

			return nil
		},
	}

	reportCmd.Flags().StringVar(&runID, "run", "",
		"only report the simulation with this ID")

	return reportCmd
}
