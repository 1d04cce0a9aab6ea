// Package cmd provides the command-line interface for swapstore.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/simulation"
	"github.com/sarchlab/swapstore/workload"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that supply defaults for unset flags.
const (
	EnvRAM         = "SWAPSTORE_RAM"
	EnvPageSize    = "SWAPSTORE_PAGE_SIZE"
	EnvPolicy      = "SWAPSTORE_POLICY"
	EnvMonitorPort = "SWAPSTORE_MONITOR_PORT"
)

type options struct {
	ram       string
	pageSize  string
	policy    string
	seed      int64
	files     []string
	processes []string
	trace     string
	record    string
	verbose   bool
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:   "swapstore",
		Short: "Simulate page replacement between RAM and a swap area.",
		Long: `swapstore replays the page references of a set of processes ` +
			`against a RAM of fixed size and reports page faults, hits and ` +
			`swap traffic. The replacement policy is FIFO, LRU or OPTIMAL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.loadDefaults(cmd)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&o.ram, "ram", "64KiB",
		"RAM capacity, e.g. 65536, 64KiB or 1MiB (env "+EnvRAM+")")
	f.StringVar(&o.pageSize, "page-size", "4KiB",
		"page size (env "+EnvPageSize+")")
	f.StringVar(&o.policy, "policy", "fifo",
		"replacement policy: fifo, lru or optimal (env "+EnvPolicy+")")
	f.Int64Var(&o.seed, "seed", 0,
		"seed of the workload generator, random if not set")
	f.StringArrayVar(&o.files, "file", nil,
		"file whose size decides the page count of a process, repeatable")
	f.StringArrayVar(&o.processes, "process", nil,
		"process in name:pages form, repeatable")
	f.StringVar(&o.trace, "trace", "",
		"file with an explicit reference string, replaces the generator")
	f.StringVar(&o.record, "record", "",
		"record steps into <name>.sqlite3")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log every step")

	rootCmd.AddCommand(
		newRunCmd(o),
		newStepCmd(o),
		newCompareCmd(o),
		newServeCmd(o),
		newExportCmd(o),
		newKVCmd(o),
		newReportCmd(),
	)

	return rootCmd
}

// loadDefaults reads .env from the working directory and applies the
// environment to the flags that were not given.
func (o *options) loadDefaults(cmd *cobra.Command) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	o.ram = fromEnv(cmd, "ram", EnvRAM, o.ram)
	o.pageSize = fromEnv(cmd, "page-size", EnvPageSize, o.pageSize)
	o.policy = fromEnv(cmd, "policy", EnvPolicy, o.policy)

	return nil
}

func fromEnv(cmd *cobra.Command, flag, env, current string) string {
	if cmd.Flags().Changed(flag) {
		return current
	}

	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}

	return current
}

// parseSize parses a byte count such as 4096, 64KiB or 1.5MB. Decimal units
// (K, KB, M) are powers of 1000 and binary units (KiB, MiB) powers of 1024.
func parseSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	return n, nil
}

// config turns the flags into a controller configuration. The descriptors
// are left empty when a trace is given.
func (o *options) config() (sim.Config, error) {
	cfg := sim.Config{}

	var err error

	cfg.RAMCapacityBytes, err = parseSize(o.ram)
	if err != nil {
		return cfg, err
	}

	cfg.PageSizeBytes, err = parseSize(o.pageSize)
	if err != nil {
		return cfg, err
	}

	cfg.Policy, err = replacement.ParseKind(o.policy)
	if err != nil {
		return cfg, err
	}

	if o.trace != "" {
		return cfg, nil
	}

	if cfg.PageSizeBytes > 0 {
		cfg.Descriptors, err = workload.DescribeFiles(o.files, cfg.PageSizeBytes)
		if err != nil {
			return cfg, err
		}
	}

	for _, p := range o.processes {
		id := paging.OwnerID(len(cfg.Descriptors))

		d, err := workload.ParseDescriptor(p, id)
		if err != nil {
			return cfg, err
		}

		cfg.Descriptors = append(cfg.Descriptors, d)
	}

	if len(cfg.Descriptors) == 0 {
		return cfg, errors.New(
			"no workload: use --file, --process or --trace")
	}

	return cfg, nil
}

// newSimulation builds a simulation and initializes its controller from the
// flags.
func (o *options) newSimulation(
	cmd *cobra.Command,
	b simulation.Builder,
) (*simulation.Simulation, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	b = b.WithLogger(log.New(cmd.ErrOrStderr(), "swapstore: ", log.LstdFlags))

	if cmd.Flags().Changed("seed") {
		b = b.WithSeed(o.seed)
	}

	if o.verbose {
		b = b.WithStepLogging()
	}

	if o.record != "" {
		b = b.WithOutputFileName(o.record)
	}

	s := b.Build()

	err = o.initialize(s.GetController(), cfg)
	if err != nil {
		s.Terminate()
		return nil, err
	}

	return s, nil
}

func (o *options) initialize(c *sim.Controller, cfg sim.Config) error {
	if o.trace == "" {
		return c.Initialize(cfg)
	}

	f, err := os.Open(o.trace)
	if err != nil {
		return err
	}
	defer f.Close()

	refs, err := workload.ParseTrace(f)
	if err != nil {
		return fmt.Errorf("%s: %w", o.trace, err)
	}

	return c.InitializeTrace(cfg, refs)
}
