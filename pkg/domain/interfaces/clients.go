package interfaces

import (
	"context"

	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
)

// PlatformClient is the endpoint client contract the collector depends
// on. Implementations apply their own timeout, retry and rate-limit
// policy; methods return typed errors (apperr tags) after exhausting
// retries and never panic.
type PlatformClient interface {
	// ListAgents fetches the full agent listing (bulk endpoint)
	ListAgents(ctx context.Context) ([]*agent.ListingFragment, error)
	// ListLeaderboard fetches one page of ranking metrics (bulk endpoint)
	ListLeaderboard(ctx context.Context, page, pageSize int) ([]*agent.MetricsFragment, error)
	// AgentDetail fetches extended info for one agent
	AgentDetail(ctx context.Context, id types.AgentID) (*agent.DetailFragment, error)
	// AgentMetrics fetches volume/revenue metrics for one agent
	AgentMetrics(ctx context.Context, id types.AgentID) (*agent.MetricsFragment, error)
	// PlatformMetrics fetches the platform-wide aggregate
	PlatformMetrics(ctx context.Context) (*agent.PlatformMetricsFragment, error)
}

// Renderer consumes the final in-memory result of a run. Rendering must
// happen only after aggregation fully completed.
type Renderer interface {
	Render(ctx context.Context, agents []*agent.Record, global *agent.GlobalMetrics) (string, error)
}
