package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/acpdex/pkg/domain/interfaces"
	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 3
	defaultPageSize    = 100

	// agdpTolerance is the relative discrepancy between the folded record
	// volume and the platform aggregate that goes unreported.
	agdpTolerance = 0.01
)

// Collector orchestrates one collection run: bulk fetches of the listing
// and leaderboard, the per-agent detail fan-out, the merge, and the final
// ordering. It holds no state across runs.
type Collector struct {
	client      interfaces.PlatformClient
	concurrency int
	pageSize    int
	withDetails bool
}

// Option is a functional option for Collector
type Option func(*Collector)

// WithClient sets the platform client
func WithClient(client interfaces.PlatformClient) Option {
	return func(x *Collector) {
		x.client = client
	}
}

// WithConcurrency bounds the number of in-flight per-agent detail fetches
func WithConcurrency(n int) Option {
	return func(x *Collector) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// WithPageSize sets the leaderboard page size
func WithPageSize(n int) Option {
	return func(x *Collector) {
		if n > 0 {
			x.pageSize = n
		}
	}
}

// WithoutDetails skips the per-agent detail fan-out; records then carry
// only the listing and leaderboard fragments.
func WithoutDetails() Option {
	return func(x *Collector) {
		x.withDetails = false
	}
}

// New creates a Collector
func New(opts ...Option) *Collector {
	x := &Collector{
		concurrency: defaultConcurrency,
		pageSize:    defaultPageSize,
		withDetails: true,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Result is the in-memory output of one run, handed to the renderer only
// after aggregation fully completed.
type Result struct {
	Agents []*agent.Record
	Global *agent.GlobalMetrics
	Report *agent.Report
}

// mergeInput gathers all fragments of one agent before the merge. Each
// fan-out goroutine writes only its own entry.
type mergeInput struct {
	id            types.AgentID
	listing       *agent.ListingFragment
	stub          bool
	lbMetrics     *agent.MetricsFragment
	detail        *agent.DetailFragment
	detailMetrics *agent.MetricsFragment
	detailErr     error
	metricsErr    error
}

// Collect runs the full aggregation pipeline. Bulk fetch failures are
// fatal and return no partial result; per-agent failures degrade only the
// affected record and are accumulated in the report.
func (x *Collector) Collect(ctx context.Context) (*Result, error) {
	if x.client == nil {
		return nil, goerr.New("collector has no platform client")
	}

	runID := types.NewRunID(ctx)
	logger := ctxlog.From(ctx).With("run_id", runID)
	ctx = ctxlog.With(ctx, logger)
	report := agent.NewReport(runID)

	logger.Info("fetching agent listing")
	listing, err := x.client.ListAgents(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "agent listing fetch failed",
			goerr.T(apperr.ErrTagFatalFetch))
	}

	logger.Info("fetching metrics leaderboard", "page_size", x.pageSize)
	lbEntries, err := x.fetchLeaderboard(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "leaderboard fetch failed",
			goerr.T(apperr.ErrTagFatalFetch))
	}

	inputs := x.indexFragments(ctx, listing, lbEntries, report)
	logger.Info("merged bulk fragments",
		"listing", len(listing),
		"leaderboard", len(lbEntries),
		"unique_agents", len(inputs))

	if x.withDetails {
		x.fetchDetails(ctx, inputs)
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "collection cancelled during detail fetch")
		}
		for _, in := range inputs {
			if in.detailErr != nil {
				report.Warn(agent.WarnDetailFetch, in.id, in.detailErr.Error())
			}
			if in.metricsErr != nil {
				report.Warn(agent.WarnDetailFetch, in.id, in.metricsErr.Error())
			}
		}
	}

	logger.Info("fetching platform metrics")
	platformAGDP := 0.0
	if pm, err := x.client.PlatformMetrics(ctx); err != nil {
		// Non-fatal: the aggregate is informational, records stand alone
		logger.Warn("platform metrics fetch failed", "error", err)
		report.Warn(agent.WarnDetailFetch, "", "platform metrics unavailable: "+err.Error())
	} else {
		platformAGDP = pm.LatestAGDP()
	}
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "collection cancelled")
	}

	records := make([]*agent.Record, 0, len(inputs))
	for _, in := range inputs {
		rec := mergeRecord(in)
		if err := rec.Validate(); err != nil {
			report.Warn(agent.WarnInvalidEntry, in.id, err.Error())
			continue
		}
		report.CountRecord(rec)
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Volume != records[j].Volume {
			return records[i].Volume > records[j].Volume
		}
		return records[i].ID < records[j].ID
	})

	x.crossCheckVolume(ctx, records, platformAGDP, report)

	global := &agent.GlobalMetrics{
		TotalAGDP:   platformAGDP,
		TotalAgents: len(records),
		CollectedAt: time.Now(),
	}

	logger.Info("collection complete", "summary", report.Summary())
	return &Result{Agents: records, Global: global, Report: report}, nil
}

// fetchLeaderboard pages through the leaderboard until a short page. A
// failed page is fatal: the bulk metric set would be silently truncated
// otherwise.
func (x *Collector) fetchLeaderboard(ctx context.Context) ([]*agent.MetricsFragment, error) {
	var all []*agent.MetricsFragment
	for page := 1; ; page++ {
		batch, err := x.client.ListLeaderboard(ctx, page, x.pageSize)
		if err != nil {
			return nil, goerr.Wrap(err, "leaderboard page fetch failed",
				goerr.V("page", page))
		}
		all = append(all, batch...)
		ctxlog.From(ctx).Debug("leaderboard page fetched",
			"page", page,
			"entries", len(batch),
			"total", len(all))

		if len(batch) < x.pageSize {
			return all, nil
		}
	}
}

// indexFragments left-joins the leaderboard onto the listing by agent id,
// producing one mergeInput per unique usable id in deterministic order.
func (x *Collector) indexFragments(ctx context.Context, listing []*agent.ListingFragment, lbEntries []*agent.MetricsFragment, report *agent.Report) []*mergeInput {
	logger := ctxlog.From(ctx)

	byID := make(map[types.AgentID]*mergeInput)
	var order []types.AgentID

	for _, entry := range listing {
		id := entry.AgentID()
		if !id.IsValid() {
			report.Warn(agent.WarnInvalidEntry, id, "listing entry has no usable id")
			continue
		}
		if _, ok := byID[id]; ok {
			report.Warn(agent.WarnMergeInconsistency, id, "duplicate id in listing")
			continue
		}
		byID[id] = &mergeInput{id: id, listing: entry}
		order = append(order, id)
	}

	for _, entry := range lbEntries {
		id := entry.AgentID()
		if !id.IsValid() {
			report.Warn(agent.WarnInvalidEntry, id, "leaderboard entry has no usable id")
			continue
		}
		in, ok := byID[id]
		if !ok {
			// Metrics reference an id absent from the listing: keep the
			// record with a synthesized listing stub, flagged partial.
			logger.Warn("leaderboard id missing from listing", "agent_id", id)
			report.Warn(agent.WarnMergeInconsistency, id, "leaderboard id missing from listing")
			in = &mergeInput{id: id, stub: true}
			byID[id] = in
			order = append(order, id)
		}
		if in.lbMetrics == nil {
			in.lbMetrics = entry
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	inputs := make([]*mergeInput, 0, len(order))
	for _, id := range order {
		inputs = append(inputs, byID[id])
	}
	return inputs
}

// fetchDetails runs the bounded per-agent fan-out. Failures degrade only
// the affected record; cancellation stops issuing new requests while
// in-flight ones finish or time out.
func (x *Collector) fetchDetails(ctx context.Context, inputs []*mergeInput) {
	ctxlog.From(ctx).Info("fetching agent details",
		"agents", len(inputs),
		"concurrency", x.concurrency)

	var g errgroup.Group
	g.SetLimit(x.concurrency)

	for _, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if detail, err := x.client.AgentDetail(ctx, in.id); err != nil {
				in.detailErr = err
			} else {
				in.detail = detail
			}
			if metrics, err := x.client.AgentMetrics(ctx, in.id); err != nil {
				in.metricsErr = err
			} else {
				in.detailMetrics = metrics
			}
			return nil
		})
	}
	_ = g.Wait()
}

// crossCheckVolume folds the record volumes and compares the result with
// the platform aggregate. A discrepancy is logged and counted, not fatal.
func (x *Collector) crossCheckVolume(ctx context.Context, records []*agent.Record, platformAGDP float64, report *agent.Report) {
	if platformAGDP <= 0 {
		return
	}

	var folded float64
	for _, rec := range records {
		folded += rec.Volume
	}

	diff := math.Abs(folded-platformAGDP) / platformAGDP
	if diff > agdpTolerance {
		ctxlog.From(ctx).Warn("folded volume disagrees with platform AGDP",
			"folded", folded,
			"platform", platformAGDP,
			"relative_diff", diff)
		report.Warn(agent.WarnVolumeMismatch, "", "folded record volume disagrees with platform AGDP")
	}
}
