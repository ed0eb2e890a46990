package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/acpdex/pkg/cli/config"
	"github.com/m-mizutani/acpdex/pkg/utils/errors"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSchedule() *cli.Command {
	var (
		interval     time.Duration
		clientCfg    config.Client
		collectorCfg config.Collector
		outputCfg    config.Output
	)

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "interval",
			Aliases:     []string{"i"},
			Sources:     cli.EnvVars("ACPDEX_INTERVAL"),
			Usage:       "Delay between collection runs",
			Value:       24 * time.Hour,
			Destination: &interval,
		},
	}
	flags = append(flags, clientCfg.Flags()...)
	flags = append(flags, collectorCfg.Flags()...)
	flags = append(flags, outputCfg.Flags()...)

	return &cli.Command{
		Name:    "schedule",
		Aliases: []string{"s"},
		Usage:   "Run collections on a fixed interval",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := ctxlog.From(ctx)
			logger.Info("starting scheduler",
				"interval", interval,
				"client", clientCfg,
				"collector", collectorCfg,
				"output", outputCfg,
			)

			client, err := clientCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure endpoint client")
			}
			collector, err := collectorCfg.Configure(client)
			if err != nil {
				return goerr.Wrap(err, "failed to configure collector")
			}
			renderer := outputCfg.Configure()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Runs never overlap: the ticker fires while a run is in
			// progress at most once, and that tick is consumed after the
			// run finished. No state is shared between runs.
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				if err := runOnce(ctx, collector, renderer); err != nil {
					if ctx.Err() != nil {
						logger.Info("scheduler stopped")
						return nil
					}
					// A failed run does not stop the schedule
					errors.Handle(ctx, goerr.Wrap(err, "scheduled run failed"))
				}

				select {
				case <-ticker.C:
				case <-ctx.Done():
					logger.Info("scheduler stopped")
					return nil
				}
			}
		},
	}
}
