package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for extensions no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnreadable is returned when the source file cannot be opened or read.
	ErrUnreadable = errors.New("cannot read ledger file")

	// ErrMalformed is returned when the file opens but holds no usable table.
	ErrMalformed = errors.New("malformed ledger table")
)

// Options controls decoding and normalization.
type Options struct {
	Schema    Schema
	DateOrder DateOrder

	// DecimalSeparator is '.', ',' or 0 to guess per cell.
	DecimalSeparator rune

	// Delimiter for delimited text; 0 sniffs it from the header line.
	Delimiter rune

	// Encoding of delimited text.
	Encoding Encoding

	// Logger receives schema-gap warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns options for the default Portuguese export.
func DefaultOptions() Options {
	return Options{
		Schema:           DefaultSchema(),
		DateOrder:        DayFirst,
		DecimalSeparator: 0,
		Encoding:         EncodingAuto,
	}
}

// DetectFormat selects the decoder for path from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return FormatDelimited, nil
	case ".xlsx", ".xlsm":
		return FormatSpreadsheet, nil
	case ".xls":
		return FormatLegacySpreadsheet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and normalizes the ledger at path.
func Load(path string, opts Options) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	rows, err := decodeFile(path, format, opts)
	if err != nil {
		return nil, err
	}

	table, err := Normalize(rows, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Source = path
	return table, nil
}

// Normalize converts a raw grid (header first) into a Table.
//
// Blank rows after the last populated row are dropped. Every other row is
// kept, whatever the quality of its values.
func Normalize(rows [][]string, format Format, opts Options) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	schema := opts.Schema
	columns := repairHeaders(rows[0], schema.Description)

	idx := func(name string) int {
		for i, c := range columns {
			if c == name {
				return i
			}
		}
		return -1
	}
	dateIdx := idx(schema.Date)
	debitIdx := idx(schema.Debit)
	creditIdx := idx(schema.Credit)
	accountIdx := idx(schema.Account)
	descIdx := idx(schema.Description)

	for _, name := range schema.Required() {
		if idx(name) < 0 {
			logger.Warn("ledger column missing, using defaults", "column", name, "format", format.String())
		}
	}

	parseDate := ParseDate
	if format != FormatDelimited {
		parseDate = ParseSpreadsheetDate
	}

	data := rows[1:]
	for len(data) > 0 && isBlankRow(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	entries := make([]Entry, 0, len(data))
	for i, row := range data {

		cells := make([]Text, len(columns))
		for c := range columns {
			if c < len(row) {
				cells[c] = Text{String: row[c], Valid: true}
			}
		}

		e := Entry{
			Line:  i + 2,
			Cells: cells,
		}
		if dateIdx >= 0 && cells[dateIdx].Valid {
			e.Date = parseDate(cells[dateIdx].String, opts.DateOrder)
		}
		if debitIdx >= 0 && cells[debitIdx].Valid {
			e.Debit = Amount(cells[debitIdx].String, opts.DecimalSeparator)
		}
		if creditIdx >= 0 && cells[creditIdx].Valid {
			e.Credit = Amount(cells[creditIdx].String, opts.DecimalSeparator)
		}
		if accountIdx >= 0 && cells[accountIdx].Valid {
			e.AccountCode = CleanCell(cells[accountIdx].String)
		}
		if descIdx >= 0 {
			e.Description = cells[descIdx]
		}

		entries = append(entries, e)
	}

	logger.Debug("ledger normalized",
		"format", format.String(),
		"columns", len(columns),
		"entries", len(entries),
	)

	return &Table{
		Format:  format,
		Schema:  schema,
		Columns: columns,
		Entries: entries,
	}, nil
}

// repairHeaders cleans header names, renames anonymous columns to the
// description column, and suffixes duplicates so every name is unique.
func repairHeaders(raw []string, description string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, h := range raw {
		h = CleanCell(h)
		if isAnonymousHeader(h) {
			h = description
		}

		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

// isAnonymousHeader matches blank headers and the "Unnamed: N" placeholders
// some tools write for them.
func isAnonymousHeader(h string) bool {
	return h == "" || strings.HasPrefix(h, "Unnamed")
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
