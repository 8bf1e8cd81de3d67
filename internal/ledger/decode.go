package ledger

// decode.go holds one decoder per Format. Every decoder returns the sheet as
// a raw grid: row 0 is the header, rows may be ragged, and a cell beyond the
// end of its row is treated as absent by the normalizer.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// decodeFile reads path with the decoder selected by format.
func decodeFile(path string, format Format, opts Options) ([][]string, error) {
	switch format {
	case FormatDelimited:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, path, err)
		}
		return decodeDelimited(data, opts)
	case FormatSpreadsheet:
		return decodeSpreadsheet(path)
	case FormatLegacySpreadsheet:
		return decodeLegacySpreadsheet(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// decodeDelimited parses CSV-like text. Rows may have differing field counts.
func decodeDelimited(data []byte, opts Options) ([][]string, error) {
	text, err := decodeText(data, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(text)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the header
// line, ignoring quoted sections. Defaults to ','.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case c == ',' || c == ';' || c == '\t':
			counts[c]++
		}
	}

	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// decodeSpreadsheet reads the first sheet of an XLSX workbook using raw
// cell values, so amounts keep full precision and dates arrive as serials.
func decodeSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, path, statErr)
		}
		return nil, fmt.Errorf("%w: open workbook %s: %v", ErrMalformed, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", ErrMalformed, path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformed, sheets[0], err)
	}
	return rows, nil
}

// decodeLegacySpreadsheet reads the first sheet of a BIFF (.xls) workbook.
func decodeLegacySpreadsheet(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnreadable, path, err)
	}

	book, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open xls %s: %v", ErrMalformed, path, err)
	}

	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: xls %s has no sheets", ErrMalformed, path)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
