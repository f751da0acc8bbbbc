package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LavishGent/datastore/pkg/datastore"
)

func getCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			v, found := b.Get(cmd.Context(), args[0], raw)
			if !found {
				return fmt.Errorf("%w: %s", datastore.ErrNotFound, args[0])
			}
			return a.print(v)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Use the key as the stored name")
	return cmd
}

func setCmd(a *app) *cobra.Command {
	var (
		ttl        time.Duration
		raw        bool
		noAutoload bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any = args[1]
			if asJSON {
				if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
					return fmt.Errorf("invalid JSON value: %w", err)
				}
			}

			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			var opts []datastore.Option
			if raw {
				opts = append(opts, datastore.Raw())
			}
			if noAutoload {
				opts = append(opts, datastore.WithoutAutoload())
			}
			if !b.Set(cmd.Context(), args[0], value, ttl, opts...) {
				return fmt.Errorf("%w: %s", datastore.ErrRejected, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Time to live (0 = no expiry); ignored by option backends")
	cmd.Flags().BoolVar(&raw, "raw", false, "Use the key as the stored name")
	cmd.Flags().BoolVar(&noAutoload, "no-autoload", false, "Do not load the option eagerly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Parse the value as JSON")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			if !b.Delete(cmd.Context(), args[0], raw) {
				return fmt.Errorf("%w: %s", datastore.ErrNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Use the key as the stored name")
	return cmd
}

func invalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate",
		Short: "Start a new generation, orphaning every key of the prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := b.Invalidate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s (generation %d)\n", a.prefix, gen)
			return nil
		},
	}
}

func keysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the stored transient names of the prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := b.Keys(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(keys)
		},
	}
}

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the object cache and option store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			report := host.Health(cmd.Context())
			if err := a.print(report); err != nil {
				return err
			}
			if report.Status == datastore.HealthStatusUnhealthy {
				return fmt.Errorf("host is %s", report.Status)
			}
			return nil
		},
	}
}

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(host.Config())
		},
	}
}

func flushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flush <group>",
		Short: "Drop every entry of an object cache group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := host.FlushGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flushed %d entries from %s\n", n, args[0])
			return nil
		},
	}
}
