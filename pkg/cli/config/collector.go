package config

import (
	"log/slog"

	"github.com/m-mizutani/acpdex/pkg/domain/interfaces"
	"github.com/m-mizutani/acpdex/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Collector holds the aggregation pipeline configuration
type Collector struct {
	Concurrency int64
	PageSize    int64
	SkipDetails bool
}

// Flags returns CLI flags for the collector
func (x *Collector) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "concurrency",
			Category:    "collector",
			Aliases:     []string{"c"},
			Sources:     cli.EnvVars("ACPDEX_CONCURRENCY"),
			Usage:       "Maximum in-flight per-agent detail fetches",
			Value:       3,
			Destination: &x.Concurrency,
		},
		&cli.Int64Flag{
			Name:        "page-size",
			Category:    "collector",
			Sources:     cli.EnvVars("ACPDEX_PAGE_SIZE"),
			Usage:       "Leaderboard page size",
			Value:       100,
			Destination: &x.PageSize,
		},
		&cli.BoolFlag{
			Name:        "skip-details",
			Category:    "collector",
			Sources:     cli.EnvVars("ACPDEX_SKIP_DETAILS"),
			Usage:       "Skip per-agent detail fetches (listing and leaderboard only)",
			Destination: &x.SkipDetails,
		},
	}
}

// LogValue returns the collector configuration as a slog.Value for logging
func (x Collector) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("concurrency", x.Concurrency),
		slog.Int64("page_size", x.PageSize),
		slog.Bool("skip_details", x.SkipDetails),
	)
}

// Configure builds the collector on top of the given client
func (x *Collector) Configure(client interfaces.PlatformClient) (*usecase.Collector, error) {
	if x.Concurrency < 1 {
		return nil, goerr.New("concurrency must be positive", goerr.V("concurrency", x.Concurrency))
	}
	if x.PageSize < 1 {
		return nil, goerr.New("page size must be positive", goerr.V("page_size", x.PageSize))
	}

	opts := []usecase.Option{
		usecase.WithClient(client),
		usecase.WithConcurrency(int(x.Concurrency)),
		usecase.WithPageSize(int(x.PageSize)),
	}
	if x.SkipDetails {
		opts = append(opts, usecase.WithoutDetails())
	}

	return usecase.New(opts...), nil
}
