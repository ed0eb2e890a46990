package config

import (
	"log/slog"

	"github.com/m-mizutani/acpdex/pkg/service/export"
	"github.com/urfave/cli/v3"
)

// Output holds the spreadsheet output configuration
type Output struct {
	Directory string
	Prefix    string
}

// Flags returns CLI flags for the output location
func (x *Output) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Category:    "output",
			Aliases:     []string{"d"},
			Sources:     cli.EnvVars("ACPDEX_OUTPUT_DIR"),
			Usage:       "Directory for rendered spreadsheets",
			Value:       "./output",
			Destination: &x.Directory,
		},
		&cli.StringFlag{
			Name:        "output-prefix",
			Category:    "output",
			Sources:     cli.EnvVars("ACPDEX_OUTPUT_PREFIX"),
			Usage:       "Spreadsheet file name prefix",
			Value:       "acp_agents",
			Destination: &x.Prefix,
		},
	}
}

// LogValue returns the output configuration as a slog.Value for logging
func (x Output) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("directory", x.Directory),
		slog.String("prefix", x.Prefix),
	)
}

// Configure builds the spreadsheet renderer
func (x *Output) Configure() *export.Excel {
	return export.NewExcel(x.Directory, x.Prefix)
}
