package cmd

import (
	"github.com/sarchlab/swapstore/export"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/simulation"
	"github.com/spf13/cobra"
)

func newCompareCmd(o *options) *cobra.Command {
	var (
		policies []string
		asCSV    bool
		best     string
	)

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Replay the same workload under several policies.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := make([]replacement.Kind, 0, len(policies))
			for _, p := range policies {
				k, err := replacement.ParseKind(p)
				if err != nil {
					return err
				}

				kinds = append(kinds, k)
			}

			metrics := allMetrics
			if best != "" {
				m, err := sim.ParseMetric(best)
				if err != nil {
					return err
				}

				metrics = []sim.Metric{m}
			}

			s, err := o.newSimulation(cmd, simulation.MakeBuilder())
			if err != nil {
				return err
			}
			defer s.Terminate()

			summaries, err := s.GetController().Compare(kinds...)
			if err != nil {
				return err
			}

			if asCSV {
				return export.WriteComparison(cmd.OutOrStdout(), summaries)
			}

			printComparison(cmd.OutOrStdout(), summaries, metrics)

			return nil
		},
	}

	compareCmd.Flags().StringSliceVar(&policies, "policies", nil,
		"policies to compare, all if empty")
	compareCmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV")
	compareCmd.Flags().StringVar(&best, "best", "",
		"only name the winner by faults, hit-rate or duration")

	return compareCmd
}
