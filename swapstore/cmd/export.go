package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sarchlab/swapstore/export"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/simulation"
	"github.com/spf13/cobra"
)

func newExportCmd(o *options) *cobra.Command {
	var (
		format      string
		compression string
		dir         string
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Replay the whole workload and save the results.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := export.ParseCompression(compression)
			if err != nil {
				return err
			}

			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported format %q", format)
			}

			s, err := o.newSimulation(cmd, simulation.MakeBuilder())
			if err != nil {
				return err
			}
			defer s.Terminate()

			_, err = s.GetController().Run(cmd.Context(), 0)
			if err != nil {
				return err
			}

			path, err := writeExport(
				dir, format, c, s.GetController().Snapshot(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)

			return nil
		},
	}

	exportCmd.Flags().StringVar(&format, "format", "json", "csv or json")
	exportCmd.Flags().StringVar(&compression, "compression", "none",
		"none, snappy or lz4")
	exportCmd.Flags().StringVarP(&dir, "output", "o", ".",
		"directory to write into")

	return exportCmd
}

func writeExport(
	dir, format string,
	c export.Compression,
	snapshot sim.Snapshot,
	now time.Time,
) (string, error) {
	name := export.FileName("simulation", ".json", c, now)
	if format == "csv" {
		name = export.FileName("stats", ".csv", c, now)
	}

	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if format == "json" {
		err = export.WriteSummary(f, export.Summarize(snapshot, now), c)
		if err != nil {
			return "", err
		}

		return path, f.Close()
	}

	w, err := export.NewWriter(f, c)
	if err != nil {
		return "", err
	}

	if err := export.WriteStatistics(w, snapshot); err != nil {
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	return path, f.Close()
}
