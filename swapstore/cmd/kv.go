package cmd

import (
	"fmt"

	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/spf13/cobra"
)

func newKVCmd(o *options) *cobra.Command {
	var capacity int

	kvCmd := &cobra.Command{
		Use:   "kv op [op...]",
		Short: "Run operations against the paged key-value store.",
		Long: `kv runs a sequence of operations against a key-value store ` +
			`whose entries are pages. Only --capacity pages fit in primary ` +
			`memory; the rest are swapped out under --policy. The ` +
			`operations are:

  put <key> <value>
  get <key>
  status
  clear`,
		Example: "  swapstore kv --capacity 2 put a 1 put b 2 put c 3 get a status",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := replacement.ParseKind(o.policy)
			if err != nil {
				return err
			}

			store, err := kvstore.New(capacity, kind)
			if err != nil {
				return err
			}

			return runKVOps(cmd, store, args)
		},
	}

	kvCmd.Flags().IntVar(&capacity, "capacity", kvstore.DefaultCapacity,
		"pages that fit in primary memory")

	return kvCmd
}

func runKVOps(cmd *cobra.Command, store *kvstore.Store, args []string) error {
	out := cmd.OutOrStdout()

	for len(args) > 0 {
		op := args[0]

		switch op {
		case "put":
			if len(args) < 3 {
				return fmt.Errorf("put needs a key and a value")
			}

			if err := store.Put(args[1], []byte(args[2])); err != nil {
				return err
			}

			fmt.Fprintln(out, "OK")

			args = args[3:]
		case "get":
			if len(args) < 2 {
				return fmt.Errorf("get needs a key")
			}

			value, ok, err := store.Get(args[1])
			if err != nil {
				return err
			}

			if ok {
				fmt.Fprintln(out, string(value))
			} else {
				fmt.Fprintln(out, "(nil)")
			}

			args = args[2:]
		case "status":
			printKVStatus(out, store.Status())

			args = args[1:]
		case "clear":
			store.Clear()
			fmt.Fprintln(out, "OK")

			args = args[1:]
		default:
			return fmt.Errorf("unknown operation %q", op)
		}
	}

	return nil
}
