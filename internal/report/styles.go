package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetStyles holds the style ids used by one sheet. excelize returns the
// existing id for an identical style, so building them per sheet does not
// grow the style table.
type sheetStyles struct {
	organization int
	title        int
	processed    int
	label        int
	text         int
	header       int
	data         int
	date         int
	currency     int
	centered     int
}

type styleDef struct {
	dst   *int
	style *excelize.Style
}

func newSheetStyles(f *excelize.File, s Style) (sheetStyles, error) {
	font := func(size float64, bold, italic bool) *excelize.Font {
		return &excelize.Font{Family: s.FontFamily, Size: size, Bold: bold, Italic: italic, Color: "000000"}
	}
	dateFmt := s.DateFormat
	currencyFmt := s.CurrencyFormat

	var out sheetStyles
	defs := []styleDef{
		{&out.organization, &excelize.Style{Font: font(14, true, false)}},
		{&out.title, &excelize.Style{Font: font(12, true, false)}},
		{&out.processed, &excelize.Style{Font: font(s.FontSize, false, true)}},
		{&out.label, &excelize.Style{Font: font(s.FontSize, true, false)}},
		{&out.text, &excelize.Style{
			Font:      font(s.FontSize, false, false),
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		}},
		{&out.header, &excelize.Style{
			Font:      font(s.FontSize, true, false),
			Fill:      excelize.Fill{Type: "pattern", Color: []string{s.HeaderFill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&out.data, &excelize.Style{
			Font:      font(s.FontSize, false, false),
			Alignment: &excelize.Alignment{Horizontal: "left"},
		}},
		{&out.date, &excelize.Style{
			Font:         font(s.FontSize, false, false),
			Alignment:    &excelize.Alignment{Horizontal: "center"},
			CustomNumFmt: &dateFmt,
		}},
		{&out.currency, &excelize.Style{
			Font:         font(s.FontSize, false, false),
			Alignment:    &excelize.Alignment{Horizontal: "left"},
			CustomNumFmt: &currencyFmt,
		}},
		{&out.centered, &excelize.Style{
			Font:      font(s.FontSize, false, false),
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return sheetStyles{}, fmt.Errorf("new style: %w", err)
		}
		*d.dst = id
	}
	return out, nil
}
