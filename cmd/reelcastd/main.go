// Command reelcastd serves the talking-video HTTP API, runs queued jobs
// and sweeps expired projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/daemonrun"
)

type runFunc func(ctx context.Context, cfg *config.Config, opts daemonrun.Options) error

func main() {
	if err := newCommand(daemonrun.Run).Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newCommand(run runFunc) *cobra.Command {
	var configPath string
	var opts daemonrun.Options
	var worker bool

	cmd := &cobra.Command{
		Use:           "reelcastd",
		Short:         "Run the reelcast daemon",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("worker") {
				cfg.Redis.WorkerEnabled = worker
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&opts.Bind, "bind", "", "Override api.bind")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	flags.BoolVar(&opts.Development, "dev", false, "Include source locations in logs")
	flags.BoolVar(&worker, "worker", false, "Override redis.worker_enabled")
	return cmd
}
