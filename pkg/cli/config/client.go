package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/acpdex/pkg/service/acp"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Client holds the endpoint client configuration
type Client struct {
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int64
	RetryWait     time.Duration
	RequestDelay  time.Duration
	EndpointsFile string
}

// Flags returns CLI flags for the endpoint client
func (x *Client) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_BASE_URL"),
			Usage:       "Platform API base URL",
			Value:       acp.DefaultBaseURL,
			Destination: &x.BaseURL,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_TIMEOUT"),
			Usage:       "Per-request timeout",
			Value:       30 * time.Second,
			Destination: &x.Timeout,
		},
		&cli.Int64Flag{
			Name:        "max-retries",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_MAX_RETRIES"),
			Usage:       "Attempts per request before its error is surfaced",
			Value:       3,
			Destination: &x.MaxRetries,
		},
		&cli.DurationFlag{
			Name:        "retry-wait",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_RETRY_WAIT"),
			Usage:       "Base backoff delay between retries (doubles per attempt)",
			Value:       time.Second,
			Destination: &x.RetryWait,
		},
		&cli.DurationFlag{
			Name:        "request-delay",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_REQUEST_DELAY"),
			Usage:       "Minimum delay between consecutive requests",
			Value:       1500 * time.Millisecond,
			Destination: &x.RequestDelay,
		},
		&cli.StringFlag{
			Name:        "endpoints-file",
			Category:    "client",
			Sources:     cli.EnvVars("ACPDEX_ENDPOINTS_FILE"),
			Usage:       "YAML file overriding endpoint paths",
			Destination: &x.EndpointsFile,
		},
	}
}

// LogValue returns the client configuration as a slog.Value for logging
func (x Client) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", x.BaseURL),
		slog.Duration("timeout", x.Timeout),
		slog.Int64("max_retries", x.MaxRetries),
		slog.Duration("retry_wait", x.RetryWait),
		slog.Duration("request_delay", x.RequestDelay),
		slog.String("endpoints_file", x.EndpointsFile),
	)
}

// Configure builds the endpoint client
func (x *Client) Configure() (*acp.Client, error) {
	if x.BaseURL == "" {
		return nil, goerr.New("base URL is required")
	}
	if x.MaxRetries < 1 {
		return nil, goerr.New("max retries must be positive", goerr.V("max_retries", x.MaxRetries))
	}

	opts := []acp.Option{
		acp.WithTimeout(x.Timeout),
		acp.WithMaxRetries(int(x.MaxRetries)),
		acp.WithRetryWait(x.RetryWait),
		acp.WithRequestDelay(x.RequestDelay),
	}

	if x.EndpointsFile != "" {
		endpoints, err := loadEndpoints(x.EndpointsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, acp.WithEndpoints(endpoints))
	}

	return acp.New(x.BaseURL, opts...), nil
}

// loadEndpoints reads an endpoint path override table from a YAML file
func loadEndpoints(path string) (acp.Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read endpoints file", goerr.V("file", path))
	}

	var endpoints acp.Endpoints
	if err := yaml.Unmarshal(data, &endpoints); err != nil {
		return nil, goerr.Wrap(err, "failed to parse endpoints file", goerr.V("file", path))
	}
	if err := endpoints.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid endpoints file", goerr.V("file", path))
	}

	return endpoints, nil
}
