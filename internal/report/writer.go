package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrWrite is returned when the workbook cannot be written to its destination.
var ErrWrite = errors.New("cannot write report")

// Layout rows. The metadata block occupies rows 1-7.
const (
	rowOrganization = 1
	rowTitle        = 2
	rowProcessed    = 3
	rowObjectiveKey = 4
	rowObjective    = 5
	rowMethodKey    = 6
	rowMethod       = 7
	HeaderRow       = 8
	FirstDataRow    = 9
)

// maxSheetName is the worksheet name limit imposed by the file format.
const maxSheetName = 31

// Style controls the look of every sheet.
type Style struct {
	Organization    string
	Locale          string
	FontFamily      string
	FontSize        float64
	ColumnWidth     float64
	MethodRowHeight float64
	HeaderFill      string
	DateFormat      string
	CurrencyFormat  string
}

// DefaultStyle returns the standard report look.
func DefaultStyle() Style {
	return Style{
		Organization:    "Villela e Associados Auditoria e Consultoria Ltda.",
		Locale:          "pt",
		FontFamily:      "Arial",
		FontSize:        10,
		ColumnWidth:     16,
		MethodRowHeight: 26.85,
		HeaderFill:      "A6A6A6",
		DateFormat:      "DD/MM/YYYY",
		CurrencyFormat:  `"R$ " #,##0.00`,
	}
}

// Meta describes the run that produced a workbook.
type Meta struct {
	RunID  string
	Source string
}

// Writer renders views into workbooks.
type Writer struct {
	Style  Style
	Logger *slog.Logger

	// Now supplies the processing date. Defaults to time.Now.
	Now func() time.Time
}

// NewWriter creates a Writer with the given style.
func NewWriter(style Style, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Style: style, Logger: logger, Now: time.Now}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// WriteWorkbook renders views, one sheet each, and writes the workbook to
// path. The file is written next to path under a temporary name and renamed
// into place, so a failed run leaves no partial output.
func (w *Writer) WriteWorkbook(path string, views []*View, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	placeholder := f.GetSheetName(0)
	keepPlaceholder := false

	for _, v := range views {
		name, err := w.Render(f, v)
		if err != nil {
			return err
		}
		if name == placeholder {
			keepPlaceholder = true
		}
	}

	if len(views) > 0 && !keepPlaceholder {
		if err := f.DeleteSheet(placeholder); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(w.docProps(meta)); err != nil {
		return fmt.Errorf("set document properties: %w", err)
	}

	return saveAtomic(f, path)
}

func (w *Writer) docProps(meta Meta) *excelize.DocProperties {
	loc := lookupLocale(w.Style.Locale)
	return &excelize.DocProperties{
		Creator:     w.Style.Organization,
		Title:       loc.labels.ReportTitle,
		Identifier:  meta.RunID,
		Description: meta.Source,
		Created:     w.now().UTC().Format(time.RFC3339),
		Language:    loc.tag.String(),
	}
}

func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrWrite, path, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := f.Write(tmp); err != nil {
		cleanup()
		return fmt.Errorf("%w %s: %v", ErrWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w %s: %v", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w %s: %v", ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w %s: %v", ErrWrite, path, err)
	}
	return nil
}

// Render draws v into f on a fresh sheet named after the procedure and
// returns the sheet name. An existing sheet with that name is replaced, so
// rendering twice yields the same sheet as rendering once.
func (w *Writer) Render(f *excelize.File, v *View) (string, error) {
	sheet := SheetName(v.Procedure.Sheet)
	if err := freshSheet(f, sheet); err != nil {
		return "", err
	}

	st, err := newSheetStyles(f, w.Style)
	if err != nil {
		return "", fmt.Errorf("sheet %q: %w", sheet, err)
	}

	headers := v.Headers()
	width := len(headers)
	if width == 0 {
		width = 1
	}
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return "", fmt.Errorf("sheet %q: %w", sheet, err)
	}

	if err := w.writeMetadata(f, sheet, v, lastCol, width, st); err != nil {
		return "", fmt.Errorf("sheet %q: metadata: %w", sheet, err)
	}
	if err := writeHeader(f, sheet, headers, lastCol, st); err != nil {
		return "", fmt.Errorf("sheet %q: header: %w", sheet, err)
	}
	if err := writeData(f, sheet, v); err != nil {
		return "", fmt.Errorf("sheet %q: data: %w", sheet, err)
	}
	if err := formatColumns(f, sheet, v, st); err != nil {
		return "", fmt.Errorf("sheet %q: format: %w", sheet, err)
	}

	if err := f.SetColWidth(sheet, "A", lastCol, w.Style.ColumnWidth); err != nil {
		return "", fmt.Errorf("sheet %q: width: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      HeaderRow,
		TopLeftCell: cell(1, FirstDataRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return "", fmt.Errorf("sheet %q: panes: %w", sheet, err)
	}

	w.Logger.Debug("sheet rendered", "sheet", sheet, "columns", len(headers), "rows", v.Len())
	return sheet, nil
}

// freshSheet makes sure sheet exists and is empty.
func freshSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}

	if idx >= 0 {
		// A workbook keeps at least one sheet; park a spare while replacing the last one.
		const spare = "~replacing"
		if f.SheetCount == 1 {
			if _, err := f.NewSheet(spare); err != nil {
				return fmt.Errorf("sheet %q: %w", sheet, err)
			}
			defer f.DeleteSheet(spare)
		}
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("replace sheet %q: %w", sheet, err)
		}
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", sheet, err)
	}
	return nil
}

func (w *Writer) writeMetadata(f *excelize.File, sheet string, v *View, lastCol string, width int, st sheetStyles) error {
	loc := lookupLocale(w.Style.Locale)

	rows := []struct {
		row   int
		value string
		style int
		merge bool
	}{
		{rowOrganization, w.Style.Organization, st.organization, true},
		{rowTitle, loc.labels.ReportTitle + " - " + loc.upper(v.Procedure.Sheet), st.title, true},
		{rowProcessed, loc.labels.Processed + " " + LongDate(w.now(), w.Style.Locale), st.processed, true},
		{rowObjectiveKey, loc.labels.Objective, st.label, false},
		{rowObjective, v.Procedure.Objective, st.text, true},
		{rowMethodKey, loc.labels.Method, st.label, false},
		{rowMethod, v.Procedure.Method, st.text, true},
	}

	for _, r := range rows {
		start := cell(1, r.row)
		if err := f.SetCellValue(sheet, start, r.value); err != nil {
			return err
		}
		end := start
		if r.merge && width > 1 {
			end = lastCol + fmt.Sprint(r.row)
			if err := f.MergeCell(sheet, start, end); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, start, end, r.style); err != nil {
			return err
		}
	}

	return f.SetRowHeight(sheet, rowMethod, w.Style.MethodRowHeight)
}

func writeHeader(f *excelize.File, sheet string, headers []string, lastCol string, st sheetStyles) error {
	if len(headers) == 0 {
		return nil
	}
	if err := f.SetSheetRow(sheet, cell(1, HeaderRow), &headers); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(1, HeaderRow), lastCol+fmt.Sprint(HeaderRow), st.header)
}

func writeData(f *excelize.File, sheet string, v *View) error {
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		for c, val := range row {
			row[c] = cellValue(val)
		}
		if err := f.SetSheetRow(sheet, cell(1, FirstDataRow+i), &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue converts view values to types the spreadsheet library writes
// natively.
func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return decimalValue(t)
	case nil:
		return nil
	default:
		return t
	}
}

// formatColumns applies per-column data styles by column name.
func formatColumns(f *excelize.File, sheet string, v *View, st sheetStyles) error {
	if v.Len() == 0 {
		return nil
	}
	schema := v.Schema()
	lastRow := FirstDataRow + v.Len() - 1

	for c, name := range v.Headers() {
		style := st.data
		switch {
		case name == schema.Date:
			style = st.date
		case schema.IsCurrency(name):
			style = st.currency
		case schema.IsIdentifier(name):
			style = st.centered
		}
		if err := f.SetCellStyle(sheet, cell(c+1, FirstDataRow), cell(c+1, lastRow), style); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// SheetName makes name acceptable as a worksheet name: forbidden characters
// become '-', and the result is cut to the length limit.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")

	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	if name == "" {
		name = "Sheet"
	}
	return name
}
