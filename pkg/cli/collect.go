package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/acpdex/pkg/cli/config"
	"github.com/m-mizutani/acpdex/pkg/domain/interfaces"
	"github.com/m-mizutani/acpdex/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdCollect() *cli.Command {
	var (
		clientCfg    config.Client
		collectorCfg config.Collector
		outputCfg    config.Output
	)

	var flags []cli.Flag
	flags = append(flags, clientCfg.Flags()...)
	flags = append(flags, collectorCfg.Flags()...)
	flags = append(flags, outputCfg.Flags()...)

	return &cli.Command{
		Name:    "collect",
		Aliases: []string{"c"},
		Usage:   "Run one collection and render the spreadsheet",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := ctxlog.From(ctx)
			logger.Info("starting collection",
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

			// SIGINT/SIGTERM cancel the run context: no new requests are
			// issued, in-flight ones finish or time out.
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runOnce(ctx, collector, renderer)
		},
	}
}

// runOnce executes one collect+render cycle. Rendering starts only after
// aggregation fully completed, so an interrupted run leaves no partial
// file behind.
func runOnce(ctx context.Context, collector *usecase.Collector, renderer interfaces.Renderer) error {
	logger := ctxlog.From(ctx)

	result, err := collector.Collect(ctx)
	if err != nil {
		return goerr.Wrap(err, "collection failed")
	}
	logger.Info("aggregation finished",
		"run_id", result.Report.RunID,
		"summary", result.Report.Summary(),
	)
	for _, w := range result.Report.Warnings {
		logger.Warn("degraded record", "kind", w.Kind, "agent_id", w.AgentID, "message", w.Message)
	}

	path, err := renderer.Render(ctx, result.Agents, result.Global)
	if err != nil {
		return goerr.Wrap(err, "failed to render spreadsheet")
	}
	logger.Info("spreadsheet written",
		"path", path,
		"agents", result.Global.TotalAgents,
		"platform_agdp", result.Global.TotalAGDP,
	)
	return nil
}
