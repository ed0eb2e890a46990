package agent

import (
	"fmt"

	"github.com/m-mizutani/acpdex/pkg/domain/types"
)

// WarningKind classifies non-fatal degradations observed during a run.
type WarningKind string

const (
	// WarnDetailFetch: a per-agent detail or metrics fetch failed and the
	// record keeps null/zero optional fields.
	WarnDetailFetch WarningKind = "detail_fetch"
	// WarnMergeInconsistency: leaderboard metrics referenced an id absent
	// from the listing, or vice versa.
	WarnMergeInconsistency WarningKind = "merge_inconsistency"
	// WarnInvalidEntry: an entry without a usable id was excluded.
	WarnInvalidEntry WarningKind = "invalid_entry"
	// WarnVolumeMismatch: the folded record volume disagrees with the
	// platform aggregate.
	WarnVolumeMismatch WarningKind = "volume_mismatch"
)

// Warning is one counted, non-fatal degradation. No failure is swallowed
// without producing a Warning.
type Warning struct {
	Kind    WarningKind
	AgentID types.AgentID
	Message string
}

// Report accumulates the outcome of one collection run so the caller can
// log a summary alongside the result.
type Report struct {
	RunID    types.RunID
	Total    int
	Complete int
	Partial  int
	Warnings []Warning
}

func NewReport(runID types.RunID) *Report {
	return &Report{RunID: runID}
}

// Warn records a non-fatal degradation
func (x *Report) Warn(kind WarningKind, id types.AgentID, msg string) {
	x.Warnings = append(x.Warnings, Warning{Kind: kind, AgentID: id, Message: msg})
}

// CountRecord updates the populated/partial tallies for one final record
func (x *Report) CountRecord(r *Record) {
	x.Total++
	if r.Partial {
		x.Partial++
	} else {
		x.Complete++
	}
}

// Summary returns a one-line human readable digest, e.g.
// "42/45 agents fully populated (3 partial, 5 warnings)"
func (x *Report) Summary() string {
	return fmt.Sprintf("%d/%d agents fully populated (%d partial, %d warnings)",
		x.Complete, x.Total, x.Partial, len(x.Warnings))
}
