package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/acpdex/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func fstr(s string) types.FlexString {
	return types.FlexString{Value: s, Valid: true}
}

func ffloat(v float64) types.FlexFloat {
	return types.FlexFloat{Value: v, Valid: true}
}

func listingOf(id, name string) *agent.ListingFragment {
	return &agent.ListingFragment{ID: fstr(id), Name: fstr(name)}
}

func metricsOf(id string, volume float64) *agent.MetricsFragment {
	return &agent.MetricsFragment{ID: fstr(id), Volume: ffloat(volume)}
}

// mockClient is an instrumented fake PlatformClient
type mockClient struct {
	listing     []*agent.ListingFragment
	listingErr  error
	pages       [][]*agent.MetricsFragment
	pagesErr    error
	details     map[types.AgentID]*agent.DetailFragment
	detailErrs  map[types.AgentID]error
	metrics     map[types.AgentID]*agent.MetricsFragment
	platform    *agent.PlatformMetricsFragment
	platformErr error

	detailDelay time.Duration

	mu          sync.Mutex
	lbCalls     int
	inFlight    int
	maxInFlight int
}

func (x *mockClient) ListAgents(ctx context.Context) ([]*agent.ListingFragment, error) {
	return x.listing, x.listingErr
}

func (x *mockClient) ListLeaderboard(ctx context.Context, page, pageSize int) ([]*agent.MetricsFragment, error) {
	x.mu.Lock()
	x.lbCalls++
	x.mu.Unlock()
	if x.pagesErr != nil {
		return nil, x.pagesErr
	}
	if page > len(x.pages) {
		return nil, nil
	}
	return x.pages[page-1], nil
}

func (x *mockClient) AgentDetail(ctx context.Context, id types.AgentID) (*agent.DetailFragment, error) {
	x.mu.Lock()
	x.inFlight++
	if x.inFlight > x.maxInFlight {
		x.maxInFlight = x.inFlight
	}
	x.mu.Unlock()

	if x.detailDelay > 0 {
		time.Sleep(x.detailDelay)
	}

	x.mu.Lock()
	x.inFlight--
	x.mu.Unlock()

	if err, ok := x.detailErrs[id]; ok {
		return nil, err
	}
	if d, ok := x.details[id]; ok {
		return d, nil
	}
	return &agent.DetailFragment{}, nil
}

func (x *mockClient) AgentMetrics(ctx context.Context, id types.AgentID) (*agent.MetricsFragment, error) {
	if m, ok := x.metrics[id]; ok {
		return m, nil
	}
	return &agent.MetricsFragment{}, nil
}

func (x *mockClient) PlatformMetrics(ctx context.Context) (*agent.PlatformMetricsFragment, error) {
	if x.platformErr != nil {
		return nil, x.platformErr
	}
	if x.platform != nil {
		return x.platform, nil
	}
	return &agent.PlatformMetricsFragment{}, nil
}

func platformOf(agdp float64) *agent.PlatformMetricsFragment {
	var pm agent.PlatformMetricsFragment
	pm.Result.GAV.SevenDays = []struct {
		Value types.FlexFloat `json:"value"`
	}{{Value: ffloat(agdp)}}
	return &pm
}

func TestCollectMergeAndOrder(t *testing.T) {
	// Listing has A, B, C; leaderboard covers only A and C. B must stay,
	// with zero metrics and the partial flag.
	mock := &mockClient{
		listing: []*agent.ListingFragment{
			listingOf("b", "Beta"),
			listingOf("a", "Alpha"),
			listingOf("c", "Gamma"),
		},
		pages: [][]*agent.MetricsFragment{
			{metricsOf("a", 100), metricsOf("c", 50)},
		},
		platform: platformOf(150),
	}

	collector := usecase.New(
		usecase.WithClient(mock),
		usecase.WithoutDetails(),
	)

	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(3)

	gt.Equal(t, result.Agents[0].ID.String(), "a")
	gt.Equal(t, result.Agents[0].Volume, float64(100))
	gt.False(t, result.Agents[0].Partial)

	gt.Equal(t, result.Agents[1].ID.String(), "c")
	gt.Equal(t, result.Agents[1].Volume, float64(50))
	gt.False(t, result.Agents[1].Partial)

	gt.Equal(t, result.Agents[2].ID.String(), "b")
	gt.Equal(t, result.Agents[2].Volume, float64(0))
	gt.True(t, result.Agents[2].Partial)

	gt.Equal(t, result.Report.Total, 3)
	gt.Equal(t, result.Report.Complete, 2)
	gt.Equal(t, result.Report.Partial, 1)

	gt.Equal(t, result.Global.TotalAgents, 3)
	gt.Equal(t, result.Global.TotalAGDP, float64(150))

	seen := map[types.AgentID]bool{}
	for _, rec := range result.Agents {
		gt.False(t, seen[rec.ID])
		seen[rec.ID] = true
	}
}

func TestCollectOrderTiebreak(t *testing.T) {
	mock := &mockClient{
		listing: []*agent.ListingFragment{
			listingOf("y", "Y"),
			listingOf("x", "X"),
		},
		pages: [][]*agent.MetricsFragment{
			{metricsOf("x", 10), metricsOf("y", 10)},
		},
	}

	collector := usecase.New(usecase.WithClient(mock), usecase.WithoutDetails())
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(2)
	gt.Equal(t, result.Agents[0].ID.String(), "x")
	gt.Equal(t, result.Agents[1].ID.String(), "y")
}

func TestCollectMetricsOnlyAgent(t *testing.T) {
	mock := &mockClient{
		listing: []*agent.ListingFragment{listingOf("a", "Alpha")},
		pages: [][]*agent.MetricsFragment{
			{metricsOf("a", 10), metricsOf("ghost", 99)},
		},
	}

	collector := usecase.New(usecase.WithClient(mock), usecase.WithoutDetails())
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(2)

	gt.Equal(t, result.Agents[0].ID.String(), "ghost")
	gt.True(t, result.Agents[0].Partial)
	gt.Equal(t, result.Agents[0].Volume, float64(99))

	var found bool
	for _, w := range result.Report.Warnings {
		if w.Kind == agent.WarnMergeInconsistency && w.AgentID == "ghost" {
			found = true
		}
	}
	gt.True(t, found)
}

func TestCollectSkipsEntriesWithoutID(t *testing.T) {
	mock := &mockClient{
		listing: []*agent.ListingFragment{
			listingOf("a", "Alpha"),
			{Name: fstr("NoID")},
		},
		pages: [][]*agent.MetricsFragment{{}},
	}

	collector := usecase.New(usecase.WithClient(mock), usecase.WithoutDetails())
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(1)

	var found bool
	for _, w := range result.Report.Warnings {
		if w.Kind == agent.WarnInvalidEntry {
			found = true
		}
	}
	gt.True(t, found)
}

func TestCollectFatalListing(t *testing.T) {
	mock := &mockClient{
		listingErr: goerr.New("listing unreachable"),
	}

	collector := usecase.New(usecase.WithClient(mock))
	result, err := collector.Collect(context.Background())
	gt.Error(t, err)
	gt.Nil(t, result)
	gt.True(t, goerr.HasTag(err, apperr.ErrTagFatalFetch))
}

func TestCollectFatalLeaderboard(t *testing.T) {
	mock := &mockClient{
		listing:  []*agent.ListingFragment{listingOf("a", "Alpha")},
		pagesErr: goerr.New("leaderboard unreachable"),
	}

	collector := usecase.New(usecase.WithClient(mock))
	result, err := collector.Collect(context.Background())
	gt.Error(t, err)
	gt.Nil(t, result)
	gt.True(t, goerr.HasTag(err, apperr.ErrTagFatalFetch))
}

func TestCollectDetailFailureDegradesOneRecord(t *testing.T) {
	detail := &agent.DetailFragment{}
	detail.Description = fstr("from detail")

	mock := &mockClient{
		listing: []*agent.ListingFragment{
			listingOf("a", "Alpha"),
			listingOf("b", "Beta"),
			listingOf("c", "Gamma"),
		},
		pages: [][]*agent.MetricsFragment{
			{metricsOf("a", 3), metricsOf("b", 2), metricsOf("c", 1)},
		},
		details: map[types.AgentID]*agent.DetailFragment{
			"a": detail, "c": detail,
		},
		detailErrs: map[types.AgentID]error{
			"b": goerr.New("detail endpoint down"),
		},
	}

	collector := usecase.New(usecase.WithClient(mock))
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(3)

	byID := map[types.AgentID]*agent.Record{}
	for _, rec := range result.Agents {
		byID[rec.ID] = rec
	}

	gt.Equal(t, byID["a"].Description, "from detail")
	gt.False(t, byID["a"].Partial)
	gt.Equal(t, byID["c"].Description, "from detail")
	gt.False(t, byID["c"].Partial)

	gt.Equal(t, byID["b"].Description, "")
	gt.True(t, byID["b"].Partial)
	gt.Equal(t, byID["b"].Volume, float64(2))

	var warned bool
	for _, w := range result.Report.Warnings {
		if w.Kind == agent.WarnDetailFetch && w.AgentID == "b" {
			warned = true
		}
	}
	gt.True(t, warned)
}

func TestCollectConcurrencyBound(t *testing.T) {
	listing := make([]*agent.ListingFragment, 0, 10)
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for _, id := range ids {
		listing = append(listing, listingOf(id, "agent-"+id))
	}

	mock := &mockClient{
		listing:     listing,
		pages:       [][]*agent.MetricsFragment{{}},
		detailDelay: 10 * time.Millisecond,
	}

	collector := usecase.New(
		usecase.WithClient(mock),
		usecase.WithConcurrency(3),
	)

	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.A(t, result.Agents).Length(10)
	gt.True(t, mock.maxInFlight <= 3)
	gt.True(t, mock.maxInFlight > 0)
}

func TestCollectPagination(t *testing.T) {
	mock := &mockClient{
		listing: []*agent.ListingFragment{listingOf("a", "Alpha")},
		pages: [][]*agent.MetricsFragment{
			{metricsOf("p1a", 5), metricsOf("p1b", 4)},
			{metricsOf("p2a", 3), metricsOf("p2b", 2)},
			{metricsOf("p3a", 1)},
		},
	}

	collector := usecase.New(
		usecase.WithClient(mock),
		usecase.WithoutDetails(),
		usecase.WithPageSize(2),
	)

	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, mock.lbCalls, 3)
	gt.A(t, result.Agents).Length(6)
}

func TestCollectPlatformMetricsFailureIsNotFatal(t *testing.T) {
	mock := &mockClient{
		listing:     []*agent.ListingFragment{listingOf("a", "Alpha")},
		pages:       [][]*agent.MetricsFragment{{metricsOf("a", 10)}},
		platformErr: goerr.New("metrics endpoint down"),
	}

	collector := usecase.New(usecase.WithClient(mock), usecase.WithoutDetails())
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, result.Global.TotalAGDP, float64(0))
	gt.True(t, len(result.Report.Warnings) > 0)
}

func TestCollectVolumeMismatchWarning(t *testing.T) {
	mock := &mockClient{
		listing:  []*agent.ListingFragment{listingOf("a", "Alpha")},
		pages:    [][]*agent.MetricsFragment{{metricsOf("a", 10)}},
		platform: platformOf(1000),
	}

	collector := usecase.New(usecase.WithClient(mock), usecase.WithoutDetails())
	result, err := collector.Collect(context.Background())
	gt.NoError(t, err)

	var found bool
	for _, w := range result.Report.Warnings {
		if w.Kind == agent.WarnVolumeMismatch {
			found = true
		}
	}
	gt.True(t, found)
}

func TestCollectCancelled(t *testing.T) {
	mock := &mockClient{
		listing: []*agent.ListingFragment{listingOf("a", "Alpha")},
		pages:   [][]*agent.MetricsFragment{{}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := usecase.New(usecase.WithClient(mock))
	result, err := collector.Collect(ctx)
	gt.Error(t, err)
	gt.Nil(t, result)
}

func TestCollectRequiresClient(t *testing.T) {
	collector := usecase.New()
	_, err := collector.Collect(context.Background())
	gt.Error(t, err)
}
