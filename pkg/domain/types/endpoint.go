package types

// Endpoint is the logical name of a platform API endpoint. Concrete URL
// paths are resolved by the client, so the rest of the pipeline never
// deals with path templates.
type Endpoint string

const (
	// EndpointAgentList returns the full agent listing with offerings
	EndpointAgentList Endpoint = "agent_list"
	// EndpointLeaderboard returns ranking metrics keyed by agent id (paginated)
	EndpointLeaderboard Endpoint = "leaderboard"
	// EndpointPlatformMetrics returns platform-wide aggregate metrics
	EndpointPlatformMetrics Endpoint = "platform_metrics"
	// EndpointAgentDetail returns extended info for a single agent
	EndpointAgentDetail Endpoint = "agent_detail"
	// EndpointAgentMetrics returns volume/revenue metrics for a single agent
	EndpointAgentMetrics Endpoint = "agent_metrics"
)

// String returns the string representation of the endpoint name
func (e Endpoint) String() string {
	return string(e)
}

// IsValid checks if the endpoint name is known
func (e Endpoint) IsValid() bool {
	switch e {
	case EndpointAgentList, EndpointLeaderboard, EndpointPlatformMetrics,
		EndpointAgentDetail, EndpointAgentMetrics:
		return true
	default:
		return false
	}
}
