// Package ledger loads general-ledger exports into a typed in-memory table.
//
// Source files arrive as delimited text (CSV), spreadsheets (XLSX) or legacy
// spreadsheets (XLS). Each format has its own decoder, but every decoder yields
// the same raw grid, which is then repaired and normalized by a single path:
//
//   - Anonymous headers are renamed to the description column.
//   - Dates are parsed best-effort; failures become an unknown Date.
//   - Debit and credit amounts are parsed leniently; failures become zero.
//   - No row is ever rejected for bad data, so counts match the source.
//
// Only unreadable files, unsupported extensions and structurally broken
// tables fail a load.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Format identifies how a source file is decoded. It is selected once from
// the file extension by DetectFormat.
type Format int

const (
	FormatDelimited Format = iota
	FormatSpreadsheet
	FormatLegacySpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatLegacySpreadsheet:
		return "legacy-spreadsheet"
	default:
		return "unknown"
	}
}

// Date is a calendar date that may be unknown.
// Valid is false when the source value was missing or could not be parsed.
type Date struct {
	Time  time.Time
	Valid bool
}

// Weekday returns the day of week and whether the date is known.
func (d Date) Weekday() (time.Weekday, bool) {
	if !d.Valid {
		return time.Sunday, false
	}
	return d.Time.Weekday(), true
}

// Text is a cell value that distinguishes absent from empty.
// Valid is false when the cell did not exist in the source row.
type Text struct {
	String string
	Valid  bool
}

// Entry is one normalized ledger row.
type Entry struct {
	Line        int // 1-based data row position in the source file
	Date        Date
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	AccountCode string
	Description Text

	// Cells holds the original cell values aligned to Table.Columns.
	Cells []Text
}

// Gross returns debit plus credit. It is always derived, never read from input.
func (e Entry) Gross() decimal.Decimal {
	return e.Debit.Add(e.Credit)
}

// Table is a normalized ledger.
type Table struct {
	Source  string
	Format  Format
	Schema  Schema
	Columns []string // original headers after repair, in source order
	Entries []Entry
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.Entries)
}

// ColumnIndex returns the position of a column by exact name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the source carried a column with this exact name.
func (t *Table) Has(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Schema names the columns the audit depends on. Names are matched exactly,
// including case and diacritics, as exported by the source system.
type Schema struct {
	Date        string
	Debit       string
	Credit      string
	Account     string
	Description string

	// Gross is the name given to the derived debit+credit column.
	Gross string

	// Balance is an optional running-balance column, displayed as currency.
	Balance string

	// EntryNumber is an optional entry identifier column, displayed centered.
	EntryNumber string
}

// DefaultSchema returns the column names of the Portuguese ledger export
// the tool was built for.
func DefaultSchema() Schema {
	return Schema{
		Date:        "Data",
		Debit:       "Débito",
		Credit:      "Crédito",
		Account:     "Cta.C.Part.",
		Description: "Historico",
		Gross:       "Valor_Bruto",
		Balance:     "Saldo-Exercicio",
		EntryNumber: "Número",
	}
}

// IsCurrency reports whether a column carries monetary amounts.
func (s Schema) IsCurrency(col string) bool {
	switch col {
	case "":
		return false
	case s.Debit, s.Credit, s.Gross, s.Balance:
		return true
	}
	return false
}

// IsIdentifier reports whether a column holds identifier-like values.
func (s Schema) IsIdentifier(col string) bool {
	switch col {
	case "":
		return false
	case s.Account, s.EntryNumber, s.Date:
		return true
	}
	return false
}

// Required returns the five columns the audit rules read.
func (s Schema) Required() []string {
	return []string{s.Date, s.Debit, s.Credit, s.Account, s.Description}
}
