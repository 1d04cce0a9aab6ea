package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/browser"
	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/simulation"
	"github.com/spf13/cobra"
)

func newServeCmd(o *options) *cobra.Command {
	var (
		port       int
		open       bool
		kvCapacity int
		kvPolicy   string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the monitor and drive the simulation from a browser.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				if v, ok := os.LookupEnv(EnvMonitorPort); ok && v != "" {
					p, err := strconv.Atoi(v)
					if err != nil {
						return fmt.Errorf("%s: %w", EnvMonitorPort, err)
					}

					port = p
				}
			}

			kvKind, err := replacement.ParseKind(kvPolicy)
			if err != nil {
				return err
			}

			if kvKind == replacement.Optimal {
				return fmt.Errorf("--kv-policy: %w", kvstore.ErrNeedsLookahead)
			}

			if kvCapacity <= 0 {
				return fmt.Errorf("--kv-capacity must be positive, got %d",
					kvCapacity)
			}

			b := simulation.MakeBuilder().
				WithMonitoring().
				WithKVCapacity(kvCapacity).
				WithKVPolicy(kvKind)
			if port != 0 {
				b = b.WithMonitorPort(port)
			}

			s, err := o.newSimulation(cmd, b)
			if err != nil {
				return err
			}
			defer s.Terminate()

			cfg := s.GetController().Config()
			s.GetProcessTable().Admit(cfg.Descriptors, cfg.PageSizeBytes)

			url := s.GetMonitor().URL()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s, press Ctrl+C to stop\n", url)

			if open {
				if err := browser.OpenURL(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(),
						"cannot open a browser: %v\n", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()

			return nil
		},
	}

	serveCmd.Flags().IntVar(&port, "port", 0,
		"port of the monitor, random if below 1000 (env "+EnvMonitorPort+")")
	serveCmd.Flags().BoolVar(&open, "open", false,
		"open the monitor in a browser")
	serveCmd.Flags().IntVar(&kvCapacity, "kv-capacity", kvstore.DefaultCapacity,
		"pages of the key-value store that fit in primary memory")
	serveCmd.Flags().StringVar(&kvPolicy, "kv-policy", "fifo",
		"replacement policy of the key-value store: fifo or lru")

	return serveCmd
}
