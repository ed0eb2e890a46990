package agent

import "time"

// GlobalMetrics is the platform-wide aggregate for one collection run.
// It is computed once per run from the platform metrics endpoint plus a
// fold over all records.
type GlobalMetrics struct {
	TotalAGDP   float64
	TotalAgents int
	CollectedAt time.Time
}
