package export_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/service/export"
	"github.com/m-mizutani/gt"
	"github.com/xuri/excelize/v2"
)

func ptr(v float64) *float64 { return &v }

func sampleRecords() []*agent.Record {
	return []*agent.Record{
		{
			ID:          "84",
			Name:        "Alpha Research",
			Category:    "research",
			Description: "market analysis",
			PageURL:     "https://app.virtuals.io/acp/agent-details/84",
			Volume:      1200.5,
			GrossAGDP:   1300,
			Revenue:     80,
			SuccessRate: 0.875,
			Rating:      ptr(4.5),
			Online:      true,
			Offerings: []agent.Offering{
				{Name: "report", Price: ptr(25), PriceType: "USDC", SLAMinutes: 60},
				{Name: "digest", SLAMinutes: 15},
			},
			TwitterHandle: "alpha_ai",
			Chains:        []string{"Base", "Solana"},
		},
		{
			ID:      "99",
			Name:    "Beta",
			PageURL: "https://app.virtuals.io/acp/agent-details/99",
			Partial: true,
		},
	}
}

func TestRenderWorkbook(t *testing.T) {
	dir := t.TempDir()
	collected := time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	global := &agent.GlobalMetrics{
		TotalAGDP:   1200.5,
		TotalAgents: 2,
		CollectedAt: collected,
	}

	renderer := export.NewExcel(dir, "acp_agents")
	path, err := renderer.Render(context.Background(), sampleRecords(), global)
	gt.NoError(t, err)
	gt.Equal(t, filepath.Base(path), "acp_agents_20260826_103000.xlsx")
	gt.Equal(t, filepath.Dir(path), dir)

	f, err := excelize.OpenFile(path)
	gt.NoError(t, err)
	defer f.Close()

	const sheet = "ACP Agents"
	gt.Equal(t, f.GetSheetList()[0], sheet)

	// Level-1 group header and level-2 column titles
	group, err := f.GetCellValue(sheet, "A1")
	gt.NoError(t, err)
	gt.Equal(t, group, "Core Info")

	rank, err := f.GetCellValue(sheet, "A2")
	gt.NoError(t, err)
	gt.Equal(t, rank, "Rank")

	name, err := f.GetCellValue(sheet, "C2")
	gt.NoError(t, err)
	gt.Equal(t, name, "Name")

	// Data rows start at row 3, ordered as given
	gt.Equal(t, mustCell(t, f, sheet, "A3"), "1")
	gt.Equal(t, mustCell(t, f, sheet, "C3"), "Alpha Research")
	gt.Equal(t, mustCell(t, f, sheet, "C4"), "Beta")

	// Offering columns are numbered multi-line blocks
	rows, err := f.GetRows(sheet)
	gt.NoError(t, err)
	titles := rows[1]
	offeringCol := indexOf(titles, "Offering Names")
	gt.True(t, offeringCol >= 0)
	offerings := rows[2][offeringCol]
	gt.True(t, strings.Contains(offerings, "1. report"))
	gt.True(t, strings.Contains(offerings, "2. digest"))
	gt.Equal(t, rows[3][offeringCol], "none")

	partialCol := indexOf(titles, "Partial Record")
	gt.True(t, partialCol >= 0)
	gt.Equal(t, rows[2][partialCol], "no")
	gt.Equal(t, rows[3][partialCol], "yes")

	onlineCol := indexOf(titles, "Online")
	gt.True(t, onlineCol >= 0)
	gt.Equal(t, rows[2][onlineCol], "yes")

	twitterCol := indexOf(titles, "Twitter Handle")
	gt.True(t, twitterCol >= 0)
	gt.Equal(t, rows[2][twitterCol], "@alpha_ai")

	chainsCol := indexOf(titles, "Enabled Chains")
	gt.True(t, chainsCol >= 0)
	gt.Equal(t, rows[2][chainsCol], "Base, Solana")

	// Summary block sits below the data rows
	gt.Equal(t, mustCell(t, f, sheet, "A6"), "Collected At")
	gt.Equal(t, mustCell(t, f, sheet, "B6"), collected.Format(time.RFC3339))
	gt.Equal(t, mustCell(t, f, sheet, "A7"), "Total Agents")
	gt.Equal(t, mustCell(t, f, sheet, "A8"), "Platform AGDP")
	gt.Equal(t, mustCell(t, f, sheet, "B8"), "$1200.50")
}

func TestRenderAgentLink(t *testing.T) {
	dir := t.TempDir()
	global := &agent.GlobalMetrics{TotalAgents: 1, CollectedAt: time.Now()}

	renderer := export.NewExcel(dir, "out")
	path, err := renderer.Render(context.Background(), sampleRecords()[:1], global)
	gt.NoError(t, err)

	f, err := excelize.OpenFile(path)
	gt.NoError(t, err)
	defer f.Close()

	hasLink, target, err := f.GetCellHyperLink("ACP Agents", "B3")
	gt.NoError(t, err)
	gt.True(t, hasLink)
	gt.Equal(t, target, "https://app.virtuals.io/acp/agent-details/84")
}

func TestRenderEmptyResult(t *testing.T) {
	dir := t.TempDir()
	global := &agent.GlobalMetrics{CollectedAt: time.Now()}

	renderer := export.NewExcel(dir, "out")
	path, err := renderer.Render(context.Background(), nil, global)
	gt.NoError(t, err)

	f, err := excelize.OpenFile(path)
	gt.NoError(t, err)
	defer f.Close()

	gt.Equal(t, mustCell(t, f, "ACP Agents", "A4"), "Collected At")
}

func TestRenderCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	global := &agent.GlobalMetrics{CollectedAt: time.Now()}

	renderer := export.NewExcel(dir, "out")
	path, err := renderer.Render(context.Background(), sampleRecords(), global)
	gt.NoError(t, err)
	gt.Equal(t, filepath.Dir(path), dir)
}

func mustCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	gt.NoError(t, err)
	return v
}

func indexOf(row []string, title string) int {
	for i, v := range row {
		if v == title {
			return i
		}
	}
	return -1
}
