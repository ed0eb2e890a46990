package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/acpdex/pkg/domain/interfaces"
	"github.com/m-mizutani/acpdex/pkg/domain/model/agent"
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/acpdex/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"
)

const sheetName = "ACP Agents"

const (
	minColWidth  = 12
	maxColWidth  = 40
	widthSampled = 50
)

// Excel renders the result of a collection run into a single-sheet
// workbook with two-level merged headers. The file is written only after
// the full row set has been produced, so an interrupted run never leaves
// a corrupt file behind.
type Excel struct {
	dir    string
	prefix string
}

var _ interfaces.Renderer = (*Excel)(nil)

// NewExcel creates a renderer writing <prefix>_<timestamp>.xlsx under dir
func NewExcel(dir, prefix string) *Excel {
	return &Excel{dir: dir, prefix: prefix}
}

// column is one spreadsheet column: its header group, title, and the
// extractor producing the cell value of a record.
type column struct {
	group string
	title string
	value func(rank int, r *agent.Record) any
	link  func(r *agent.Record) string
}

func columns() []column {
	return []column{
		{group: "Core Info", title: "Rank", value: func(rank int, _ *agent.Record) any { return rank }},
		{group: "Core Info", title: "Agent Link",
			value: func(_ int, r *agent.Record) any { return r.PageURL },
			link:  func(r *agent.Record) string { return r.PageURL }},
		{group: "Core Info", title: "Name", value: func(_ int, r *agent.Record) any { return r.Name }},
		{group: "Core Info", title: "Category", value: func(_ int, r *agent.Record) any { return r.Category }},
		{group: "Core Info", title: "Description", value: func(_ int, r *agent.Record) any { return r.Description }},

		{group: "Key Metrics", title: "Volume (Total AGDP)", value: func(_ int, r *agent.Record) any { return r.Volume }},
		{group: "Key Metrics", title: "Gross AGDP", value: func(_ int, r *agent.Record) any { return r.GrossAGDP }},
		{group: "Key Metrics", title: "Total Revenue", value: func(_ int, r *agent.Record) any { return r.Revenue }},
		{group: "Key Metrics", title: "Success Rate (%)", value: func(_ int, r *agent.Record) any { return r.SuccessRate * 100 }},
		{group: "Key Metrics", title: "Rating", value: func(_ int, r *agent.Record) any {
			if r.Rating == nil {
				return ""
			}
			return *r.Rating
		}},

		{group: "Activity", title: "Transaction Count", value: func(_ int, r *agent.Record) any { return r.TransactionCount }},
		{group: "Activity", title: "Successful Jobs", value: func(_ int, r *agent.Record) any { return r.SuccessfulJobs }},
		{group: "Activity", title: "Unique Buyers", value: func(_ int, r *agent.Record) any { return r.UniqueBuyers }},
		{group: "Activity", title: "Online", value: func(_ int, r *agent.Record) any { return yesNo(r.Online) }},
		{group: "Activity", title: "Last Active", value: func(_ int, r *agent.Record) any { return r.LastActiveAt }},
		{group: "Activity", title: "Partial Record", value: func(_ int, r *agent.Record) any { return yesNo(r.Partial) }},

		{group: "What I Offer", title: "Offering Names", value: offeringLines(func(o agent.Offering) string { return o.Name })},
		{group: "What I Offer", title: "Offering Descriptions", value: offeringLines(func(o agent.Offering) string {
			if o.Description == "" {
				return "(no description)"
			}
			return o.Description
		})},
		{group: "What I Offer", title: "Offering Prices", value: offeringLines(formatPrice)},
		{group: "What I Offer", title: "Offering SLA (min)", value: offeringLines(func(o agent.Offering) string {
			return fmt.Sprintf("%d min", o.SLAMinutes)
		})},
		{group: "What I Offer", title: "Offering Requirements", value: offeringLines(func(o agent.Offering) string {
			if o.Requirement == "" {
				return "(no requirement)"
			}
			return o.Requirement
		})},

		{group: "Identity & Links", title: "Wallet Address", value: func(_ int, r *agent.Record) any { return r.WalletAddress }},
		{group: "Identity & Links", title: "Contract Address", value: func(_ int, r *agent.Record) any { return r.ContractAddress }},
		{group: "Identity & Links", title: "Token Address", value: func(_ int, r *agent.Record) any { return r.TokenAddress }},
		{group: "Identity & Links", title: "Owner Address", value: func(_ int, r *agent.Record) any { return r.OwnerAddress }},
		{group: "Identity & Links", title: "Twitter Handle", value: func(_ int, r *agent.Record) any {
			if r.TwitterHandle == "" {
				return ""
			}
			return "@" + r.TwitterHandle
		}},
		{group: "Identity & Links", title: "Symbol", value: func(_ int, r *agent.Record) any { return r.Symbol }},
		{group: "Identity & Links", title: "Role", value: func(_ int, r *agent.Record) any { return r.Role }},
		{group: "Identity & Links", title: "Cluster", value: func(_ int, r *agent.Record) any { return r.Cluster }},
		{group: "Identity & Links", title: "Graduated", value: func(_ int, r *agent.Record) any { return yesNo(r.HasGraduated) }},
		{group: "Identity & Links", title: "Wallet Balance", value: func(_ int, r *agent.Record) any { return r.WalletBalance }},
		{group: "Identity & Links", title: "Enabled Chains", value: func(_ int, r *agent.Record) any { return strings.Join(r.Chains, ", ") }},
		{group: "Identity & Links", title: "Created At", value: func(_ int, r *agent.Record) any { return r.CreatedAt }},
		{group: "Identity & Links", title: "Avatar URL", value: func(_ int, r *agent.Record) any { return r.AvatarURL }},
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func offeringLines(format func(o agent.Offering) string) func(int, *agent.Record) any {
	return func(_ int, r *agent.Record) any {
		if len(r.Offerings) == 0 {
			return "none"
		}
		lines := make([]string, 0, len(r.Offerings))
		for i, o := range r.Offerings {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, format(o)))
		}
		return strings.Join(lines, "\n")
	}
}

func formatPrice(o agent.Offering) string {
	if o.Price == nil {
		return "(no price)"
	}
	if o.PriceType == "percentage" {
		return fmt.Sprintf("%.1f%% (proportional)", *o.Price*100)
	}
	return fmt.Sprintf("$%.2f USDC (fixed)", *o.Price)
}

// Render writes the workbook and returns the output file path
func (x *Excel) Render(ctx context.Context, agents []*agent.Record, global *agent.GlobalMetrics) (string, error) {
	if err := os.MkdirAll(x.dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory",
			goerr.T(apperr.ErrTagRender),
			goerr.V("dir", x.dir))
	}

	f := excelize.NewFile()
	defer safe.Close(ctx, f)

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", goerr.Wrap(err, "failed to name sheet", goerr.T(apperr.ErrTagRender))
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return "", err
	}

	cols := columns()
	if err := x.writeHeaders(f, cols, styles); err != nil {
		return "", err
	}
	if err := x.writeRows(f, cols, agents, styles); err != nil {
		return "", err
	}
	if err := x.applyLayout(f, cols, len(agents)); err != nil {
		return "", err
	}
	if err := x.writeSummary(f, len(cols), len(agents), global, styles); err != nil {
		return "", err
	}

	path := filepath.Join(x.dir, fmt.Sprintf("%s_%s.xlsx", x.prefix, global.CollectedAt.Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", goerr.Wrap(err, "failed to save workbook",
			goerr.T(apperr.ErrTagRender),
			goerr.V("path", path))
	}
	return path, nil
}

// writeHeaders emits the merged level-1 group row and the level-2 titles
func (x *Excel) writeHeaders(f *excelize.File, cols []column, styles *styleSet) error {
	start := 0
	for start < len(cols) {
		end := start
		for end+1 < len(cols) && cols[end+1].group == cols[start].group {
			end++
		}

		first, err := excelize.CoordinatesToCellName(start+1, 1)
		if err != nil {
			return goerr.Wrap(err, "invalid header coordinates")
		}
		last, err := excelize.CoordinatesToCellName(end+1, 1)
		if err != nil {
			return goerr.Wrap(err, "invalid header coordinates")
		}
		if first != last {
			if err := f.MergeCell(sheetName, first, last); err != nil {
				return goerr.Wrap(err, "failed to merge header cells", goerr.T(apperr.ErrTagRender))
			}
		}
		if err := f.SetCellValue(sheetName, first, cols[start].group); err != nil {
			return goerr.Wrap(err, "failed to write group header", goerr.T(apperr.ErrTagRender))
		}
		if err := f.SetCellStyle(sheetName, first, last, styles.groupHeader); err != nil {
			return goerr.Wrap(err, "failed to style group header", goerr.T(apperr.ErrTagRender))
		}

		start = end + 1
	}

	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return goerr.Wrap(err, "invalid header coordinates")
		}
		if err := f.SetCellValue(sheetName, cell, col.title); err != nil {
			return goerr.Wrap(err, "failed to write column header", goerr.T(apperr.ErrTagRender))
		}
	}
	firstTitle, _ := excelize.CoordinatesToCellName(1, 2)
	lastTitle, _ := excelize.CoordinatesToCellName(len(cols), 2)
	if err := f.SetCellStyle(sheetName, firstTitle, lastTitle, styles.columnHeader); err != nil {
		return goerr.Wrap(err, "failed to style column headers", goerr.T(apperr.ErrTagRender))
	}
	return nil
}

// writeRows emits one data row per record, starting at row 3
func (x *Excel) writeRows(f *excelize.File, cols []column, agents []*agent.Record, styles *styleSet) error {
	for i, rec := range agents {
		row := i + 3
		for c, col := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return goerr.Wrap(err, "invalid row coordinates")
			}
			if err := f.SetCellValue(sheetName, cell, col.value(i+1, rec)); err != nil {
				return goerr.Wrap(err, "failed to write cell",
					goerr.T(apperr.ErrTagRender),
					goerr.V("agent_id", rec.ID))
			}

			style := styles.data
			if col.link != nil {
				if url := col.link(rec); url != "" {
					if err := f.SetCellHyperLink(sheetName, cell, url, "External"); err != nil {
						return goerr.Wrap(err, "failed to set hyperlink", goerr.T(apperr.ErrTagRender))
					}
					style = styles.link
				}
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return goerr.Wrap(err, "failed to style cell", goerr.T(apperr.ErrTagRender))
			}
		}
	}
	return nil
}

// applyLayout sets column widths, frozen panes and the auto filter
func (x *Excel) applyLayout(f *excelize.File, cols []column, rows int) error {
	for c := range cols {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return goerr.Wrap(err, "invalid column number")
		}
		width := x.columnWidth(f, c+1, rows)
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return goerr.Wrap(err, "failed to set column width", goerr.T(apperr.ErrTagRender))
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return goerr.Wrap(err, "failed to freeze panes", goerr.T(apperr.ErrTagRender))
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return goerr.Wrap(err, "invalid column number")
	}
	filterRange := fmt.Sprintf("A2:%s%d", lastCol, rows+2)
	if err := f.AutoFilter(sheetName, filterRange, nil); err != nil {
		return goerr.Wrap(err, "failed to set auto filter", goerr.T(apperr.ErrTagRender))
	}
	return nil
}

// columnWidth sizes a column to its longest line among the first rows
func (x *Excel) columnWidth(f *excelize.File, col, rows int) float64 {
	maxLen := 0
	sample := rows
	if sample > widthSampled {
		sample = widthSampled
	}
	for row := 2; row <= sample+2; row++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			continue
		}
		value, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(value, "\n") {
			if len(line) > maxLen {
				maxLen = len(line)
			}
		}
	}

	width := maxLen + 3
	if width < minColWidth {
		width = minColWidth
	}
	if width > maxColWidth {
		width = maxColWidth
	}
	return float64(width)
}

// writeSummary appends the run summary block below the data rows
func (x *Excel) writeSummary(f *excelize.File, totalCols, rows int, global *agent.GlobalMetrics, styles *styleSet) error {
	base := rows + 4
	entries := []struct {
		label string
		value any
	}{
		{"Collected At", global.CollectedAt.Format(time.RFC3339)},
		{"Total Agents", global.TotalAgents},
		{"Platform AGDP", fmt.Sprintf("$%.2f", global.TotalAGDP)},
	}

	for i, e := range entries {
		labelCell, err := excelize.CoordinatesToCellName(1, base+i)
		if err != nil {
			return goerr.Wrap(err, "invalid summary coordinates")
		}
		valueCell, err := excelize.CoordinatesToCellName(2, base+i)
		if err != nil {
			return goerr.Wrap(err, "invalid summary coordinates")
		}
		if err := f.SetCellValue(sheetName, labelCell, e.label); err != nil {
			return goerr.Wrap(err, "failed to write summary label", goerr.T(apperr.ErrTagRender))
		}
		if err := f.SetCellStyle(sheetName, labelCell, labelCell, styles.summaryLabel); err != nil {
			return goerr.Wrap(err, "failed to style summary label", goerr.T(apperr.ErrTagRender))
		}
		if err := f.SetCellValue(sheetName, valueCell, e.value); err != nil {
			return goerr.Wrap(err, "failed to write summary value", goerr.T(apperr.ErrTagRender))
		}
	}
	return nil
}
