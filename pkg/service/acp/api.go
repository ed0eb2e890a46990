package acp

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/goerr/v2"
)

// ListAgents fetches the full agent listing including graduated and
// non-graduated agents.
func (c *Client) ListAgents(ctx context.Context) ([]*agent.ListingFragment, error) {
	params := url.Values{
		"filters[hasGraduated]": {"all"},
		"sort":                  {"successfulJobCount"},
		"search":                {""},
	}

	data, err := c.fetch(ctx, types.EndpointAgentList, "", params)
	if err != nil {
		return nil, err
	}

	var entries []*agent.ListingFragment
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "agent listing is not an array")
	}
	return entries, nil
}

// ListLeaderboard fetches one page of the metrics leaderboard, sorted by
// volume so page contents are stable within a run.
func (c *Client) ListLeaderboard(ctx context.Context, page, pageSize int) ([]*agent.MetricsFragment, error) {
	params := url.Values{
		"page":      {strconv.Itoa(page)},
		"pageSize":  {strconv.Itoa(pageSize)},
		"sortBy":    {"volume"},
		"sortOrder": {"desc"},
	}

	data, err := c.fetch(ctx, types.EndpointLeaderboard, "", params)
	if err != nil {
		return nil, err
	}

	var entries []*agent.MetricsFragment
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "leaderboard page is not an array",
			goerr.V("page", page))
	}
	return entries, nil
}

// AgentDetail fetches the extended info of one agent
func (c *Client) AgentDetail(ctx context.Context, id types.AgentID) (*agent.DetailFragment, error) {
	data, err := c.fetch(ctx, types.EndpointAgentDetail, id, nil)
	if err != nil {
		return nil, err
	}

	var detail agent.DetailFragment
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "agent detail is not an object",
			goerr.V("agent_id", id))
	}
	return &detail, nil
}

// AgentMetrics fetches the volume/revenue metrics of one agent
func (c *Client) AgentMetrics(ctx context.Context, id types.AgentID) (*agent.MetricsFragment, error) {
	data, err := c.fetch(ctx, types.EndpointAgentMetrics, id, nil)
	if err != nil {
		return nil, err
	}

	var metrics agent.MetricsFragment
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "agent metrics is not an object",
			goerr.V("agent_id", id))
	}
	return &metrics, nil
}

// PlatformMetrics fetches the platform-wide aggregate metrics
func (c *Client) PlatformMetrics(ctx context.Context) (*agent.PlatformMetricsFragment, error) {
	data, err := c.fetch(ctx, types.EndpointPlatformMetrics, "", nil)
	if err != nil {
		return nil, err
	}

	var metrics agent.PlatformMetricsFragment
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, goerr.Wrap(apperr.ErrMalformedPayload, "platform metrics is not an object")
	}
	return &metrics, nil
}
