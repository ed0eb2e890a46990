package acp

import (
	"strings"

	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultBaseURL is the public API root of the ACP platform
const DefaultBaseURL = "https://acpx.virtuals.io/api"

// Endpoints maps logical endpoint names to URL path templates. "{id}" in
// a template is replaced with the agent id. The table can be overridden
// from a YAML file because the platform versions its API paths.
type Endpoints map[types.Endpoint]string

// DefaultEndpoints returns the endpoint table of the current API version
func DefaultEndpoints() Endpoints {
	return Endpoints{
		types.EndpointAgentList:       "/agents",
		types.EndpointLeaderboard:     "/metrics/agents",
		types.EndpointPlatformMetrics: "/metrics/four-metrics",
		types.EndpointAgentDetail:     "/agents/{id}/details",
		types.EndpointAgentMetrics:    "/metrics/agent/{id}",
	}
}

// Validate checks that every entry uses a known endpoint name and a
// usable path.
func (x Endpoints) Validate() error {
	for name, path := range x {
		if !name.IsValid() {
			return goerr.New("unknown endpoint name", goerr.V("endpoint", name))
		}
		if !strings.HasPrefix(path, "/") {
			return goerr.New("endpoint path must start with '/'",
				goerr.V("endpoint", name),
				goerr.V("path", path))
		}
	}
	return nil
}

// Merge overlays non-empty entries of other onto a copy of the table
func (x Endpoints) Merge(other Endpoints) Endpoints {
	merged := make(Endpoints, len(x))
	for name, path := range x {
		merged[name] = path
	}
	for name, path := range other {
		if path != "" {
			merged[name] = path
		}
	}
	return merged
}
