package cmd

import (
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd(o *options) *cobra.Command {
	var delay time.Duration

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay the whole workload and print the statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.newSimulation(cmd, simulation.MakeBuilder())
			if err != nil {
				return err
			}
			defer s.Terminate()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			_, err = s.GetController().Run(ctx, delay)
			if err != nil {
				return err
			}

			printSnapshot(cmd.OutOrStdout(), s.GetController().Snapshot())
			printOwnerCounts(cmd.OutOrStdout(), s.GetOwnerCounts())

			return nil
		},
	}

	runCmd.Flags().DurationVar(&delay, "delay", 0, "pause between steps")

	return runCmd
}

func newStepCmd(o *options) *cobra.Command {
	var n int

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "Resolve the first references one at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.newSimulation(cmd, simulation.MakeBuilder())
			if err != nil {
				return err
			}
			defer s.Terminate()

			c := s.GetController()
			for i := 0; i < n; i++ {
				r, err := c.Step()
				if errors.Is(err, sim.ErrCompleted) {
					break
				}

				if err != nil {
					return err
				}

				printStep(cmd.OutOrStdout(), r)
			}

			printSnapshot(cmd.OutOrStdout(), c.Snapshot())

			return nil
		},
	}

	stepCmd.Flags().IntVarP(&n, "count", "n", 1, "number of steps")

	return stepCmd
}
