package export

import (
	"github.com/m-mizutani/acpdex/pkg/domain/types/apperr"
	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"
)

const (
	groupFillColor   = "2F5496"
	groupFontColor   = "FFFFFF"
	titleFillColor   = "D6E4F0"
	titleFontColor   = "1F3864"
	borderColor      = "B4C6E7"
	hyperlinkColor   = "0563C1"
	defaultFontName  = "Arial"
	defaultFontSize  = 10.0
	headerFontSize   = 11.0
)

// styleSet holds the style ids registered in one workbook
type styleSet struct {
	groupHeader  int
	columnHeader int
	data         int
	link         int
	summaryLabel int
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: borderColor, Style: 1})
	}
	return borders
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	groupHeader, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: defaultFontName, Bold: true, Color: groupFontColor, Size: headerFontSize},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{groupFillColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register group header style", goerr.T(apperr.ErrTagRender))
	}

	columnHeader, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: defaultFontName, Bold: true, Color: titleFontColor, Size: defaultFontSize},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{titleFillColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register column header style", goerr.T(apperr.ErrTagRender))
	}

	data, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: defaultFontName, Size: defaultFontSize},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register data style", goerr.T(apperr.ErrTagRender))
	}

	link, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: defaultFontName, Size: defaultFontSize, Color: hyperlinkColor, Underline: "single"},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register link style", goerr.T(apperr.ErrTagRender))
	}

	summaryLabel, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Family: defaultFontName, Bold: true, Size: defaultFontSize},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register summary style", goerr.T(apperr.ErrTagRender))
	}

	return &styleSet{
		groupHeader:  groupHeader,
		columnHeader: columnHeader,
		data:         data,
		link:         link,
		summaryLabel: summaryLabel,
	}, nil
}
