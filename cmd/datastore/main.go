// Command datastore inspects and edits the backends of a datastore host.
// It is meant for shared primitives (redis object cache, postgres option
// store); with in-process drivers every run starts empty.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LavishGent/datastore/pkg/datastore"
	"github.com/LavishGent/datastore/pkg/datastore/log/zaplog"
)

type app struct {
	configPath string
	backend    string
	prefix     string
	group      string
	networkID  int64
	output     string
	verbose    bool

	out io.Writer
	// host is opened lazily from configPath unless a caller sets it.
	host     *datastore.Host
	ownsHost bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{out: os.Stdout}
	err := newRootCmd(a).ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "datastore",
		Short:         "Inspect and edit datastore backends",
		Long:          "Reads, writes and invalidates prefix-scoped keys on the object cache, option and transient backends of a datastore host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(a.out)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (JSON or YAML)")
	flags.StringVarP(&a.backend, "backend", "b", datastore.BackendObjectCache.String(),
		"Backend: cache, option, network-option, transient, site-transient")
	flags.StringVarP(&a.prefix, "prefix", "p", "", "Backend key prefix")
	flags.StringVarP(&a.group, "group", "g", "", "Object cache group")
	flags.Int64Var(&a.networkID, "network-id", 0, "Network for network-wide backends (default: configured network)")
	flags.StringVarP(&a.output, "output", "o", "yaml", "Output format: yaml or json")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(
		getCmd(a),
		setCmd(a),
		deleteCmd(a),
		invalidateCmd(a),
		keysCmd(a),
		healthCmd(a),
		configCmd(a),
		flushCmd(a),
	)
	return rootCmd
}

func (a *app) open(ctx context.Context) (*datastore.Host, error) {
	if a.host != nil {
		return a.host, nil
	}

	logger := zap.NewNop()
	if a.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	host, err := datastore.NewFromFile(ctx, a.configPath, datastore.WithLogger(zaplog.New(logger)))
	if err != nil {
		return nil, err
	}
	a.host = host
	a.ownsHost = true
	return host, nil
}

func (a *app) close() error {
	if a.host == nil || !a.ownsHost {
		return nil
	}
	err := a.host.Close()
	a.host = nil
	return err
}
