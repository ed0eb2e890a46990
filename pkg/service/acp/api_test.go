package acp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/acpdex/pkg/service/acp"
	"github.com/m-mizutani/gt"
)

func TestListLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/metrics/agents")
		gt.Equal(t, r.URL.Query().Get("page"), "2")
		gt.Equal(t, r.URL.Query().Get("pageSize"), "50")
		gt.Equal(t, r.URL.Query().Get("sortBy"), "volume")
		gt.Equal(t, r.URL.Query().Get("sortOrder"), "desc")
		_, _ = w.Write([]byte(`{"data": [
			{"id": 7, "volume": "1200.5", "revenue": 80, "successRate": 95.5},
			{"id": 9, "volume": 300, "rating": "N/A"}
		]}`))
	}))
	defer srv.Close()

	client := acp.New(srv.URL)
	entries, err := client.ListLeaderboard(context.Background(), 2, 50)
	gt.NoError(t, err)
	gt.A(t, entries).Length(2)
	gt.Equal(t, entries[0].AgentID().String(), "7")
	gt.Equal(t, entries[0].Volume.Or(0), 1200.5)
	gt.Equal(t, entries[1].AgentID().String(), "9")
	gt.False(t, entries[1].Rating.Valid)
}

func TestAgentDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/agents/84/details")
		_, _ = w.Write([]byte(`{"data": {
			"id": 84,
			"name": "helper",
			"walletAddress": "0xabc",
			"jobs": [
				{"name": "research", "priceV2": {"value": 4.5, "type": "fixed"}, "slaMinutes": 30}
			],
			"someFutureField": {"ignored": true}
		}}`))
	}))
	defer srv.Close()

	client := acp.New(srv.URL)
	detail, err := client.AgentDetail(context.Background(), "84")
	gt.NoError(t, err)
	gt.Equal(t, detail.Name.Or(""), "helper")
	gt.Equal(t, detail.WalletAddress.Or(""), "0xabc")
	gt.A(t, detail.Jobs).Length(1)
	gt.Equal(t, detail.Jobs[0].PriceV2.Value.Or(0), 4.5)
}

func TestAgentDetailRequiresID(t *testing.T) {
	client := acp.New("http://example.invalid")
	_, err := client.AgentDetail(context.Background(), "")
	gt.Error(t, err)
}

func TestPlatformMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/metrics/four-metrics")
		_, _ = w.Write([]byte(`{"data": {"result": {"GAV": {"7D": [
			{"value": 100}, {"value": 250.75}
		]}}}}`))
	}))
	defer srv.Close()

	client := acp.New(srv.URL)
	metrics, err := client.PlatformMetrics(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, metrics.LatestAGDP(), 250.75)
}

func TestEndpointsOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/v2/agents")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := acp.New(srv.URL, acp.WithEndpoints(acp.Endpoints{
		"agent_list": "/v2/agents",
	}))

	_, err := client.ListAgents(context.Background())
	gt.NoError(t, err)
}

func TestEndpointsValidate(t *testing.T) {
	gt.NoError(t, acp.DefaultEndpoints().Validate())
	gt.Error(t, acp.Endpoints{"agent_list": "no-slash"}.Validate())
	gt.Error(t, acp.Endpoints{"unknown_name": "/x"}.Validate())
}
