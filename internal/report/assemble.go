// Package report turns an annotated ledger into a styled multi-sheet workbook.
//
// Assembly and rendering are separate steps. [Assemble] builds one [View]
// per procedure: an ordered list of column references over the annotated
// table. A [Writer] renders views into excelize worksheets with a fixed
// metadata block, header row and column formatting.
package report

import (
	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/shopspring/decimal"
)

// ColumnKind says where a view column takes its values from.
type ColumnKind int

const (
	ColumnSource ColumnKind = iota // original cell of the source table
	ColumnGross                    // derived debit + credit
	ColumnFlag                     // audit flag
)

// ColumnRef is one column of a view.
type ColumnRef struct {
	Kind  ColumnKind
	Name  string
	Index int // source column index, ColumnSource only
	Flag  audit.Flag
}

// View is a named projection of the annotated table.
type View struct {
	Procedure audit.Procedure
	Columns   []ColumnRef

	data *audit.Annotated
	rows []int // entry indexes; nil means every entry
}

// Headers returns the column names in display order.
func (v *View) Headers() []string {
	out := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of data rows.
func (v *View) Len() int {
	if v.rows != nil {
		return len(v.rows)
	}
	return v.data.Len()
}

// Schema returns the column schema of the underlying table.
func (v *View) Schema() ledger.Schema {
	return v.data.Table.Schema
}

// Row returns the typed values of data row i. Values are string,
// time.Time, decimal.Decimal, bool or nil for an absent cell.
func (v *View) Row(i int) []any {
	idx := i
	if v.rows != nil {
		idx = v.rows[i]
	}

	entry := v.data.Table.Entries[idx]
	flags := v.data.Flags[idx]
	schema := v.data.Table.Schema

	out := make([]any, len(v.Columns))
	for c, col := range v.Columns {
		switch col.Kind {
		case ColumnGross:
			out[c] = entry.Gross()
		case ColumnFlag:
			out[c] = flags.Get(col.Flag)
		default:
			out[c] = sourceValue(entry, col, schema)
		}
	}
	return out
}

// sourceValue returns the typed value of a source cell. Schema columns carry
// their normalized value so the sheet shows what the rules evaluated.
func sourceValue(e ledger.Entry, col ColumnRef, schema ledger.Schema) any {
	switch col.Name {
	case schema.Date:
		if e.Date.Valid {
			return e.Date.Time
		}
		return nil
	case schema.Debit:
		return e.Debit
	case schema.Credit:
		return e.Credit
	}

	if col.Index >= len(e.Cells) || !e.Cells[col.Index].Valid {
		return nil
	}
	raw := e.Cells[col.Index].String

	if schema.IsCurrency(col.Name) {
		if d, ok := ledger.ParseAmount(raw, 0); ok {
			return d
		}
	}
	return raw
}

// Assembler builds views. The zero value shows every source column.
type Assembler struct {
	// Columns restricts and orders the columns of every view by name.
	// Names absent from the dataset are skipped. Empty means all.
	Columns []string

	// OnlyFlagged limits procedure views to entries that raised its flag.
	OnlyFlagged bool
}

// Assemble builds views with the default Assembler.
func Assemble(a *audit.Annotated, procs []audit.Procedure) []*View {
	return Assembler{}.Assemble(a, procs)
}

// Assemble returns one view per procedure, in procedure order.
//
// The full listing holds the source columns, the gross value and every flag.
// A procedure view holds the source columns and its own flag only.
func (as Assembler) Assemble(a *audit.Annotated, procs []audit.Procedure) []*View {
	source := as.sourceColumns(a.Table)

	views := make([]*View, 0, len(procs))
	for _, p := range procs {
		v := &View{Procedure: p, data: a}

		if !p.Filtered {
			v.Columns = as.fullColumns(a.Table, source)
		} else {
			v.Columns = append(append([]ColumnRef(nil), source...), ColumnRef{
				Kind: ColumnFlag,
				Name: p.Flag.Column(),
				Flag: p.Flag,
			})
			if as.OnlyFlagged {
				v.rows = flaggedRows(a, p.Flag)
			}
		}

		views = append(views, v)
	}
	return views
}

// sourceColumns returns the source columns a view may show. A source column
// carrying the gross-value name is superseded by the derived value.
func (as Assembler) sourceColumns(t *ledger.Table) []ColumnRef {
	var out []ColumnRef
	add := func(i int) {
		name := t.Columns[i]
		if name == t.Schema.Gross {
			return
		}
		out = append(out, ColumnRef{Kind: ColumnSource, Name: name, Index: i})
	}

	if len(as.Columns) == 0 {
		for i := range t.Columns {
			add(i)
		}
		return out
	}

	for _, name := range as.Columns {
		if i := t.ColumnIndex(name); i >= 0 {
			add(i)
		}
	}
	return out
}

func (as Assembler) fullColumns(t *ledger.Table, source []ColumnRef) []ColumnRef {
	cols := append([]ColumnRef(nil), source...)

	if as.wants(t.Schema.Gross) {
		cols = append(cols, ColumnRef{Kind: ColumnGross, Name: t.Schema.Gross})
	}
	for _, f := range audit.AllFlags() {
		cols = append(cols, ColumnRef{Kind: ColumnFlag, Name: f.Column(), Flag: f})
	}
	return cols
}

// wants reports whether name passes the column restriction.
func (as Assembler) wants(name string) bool {
	if len(as.Columns) == 0 {
		return true
	}
	for _, c := range as.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func flaggedRows(a *audit.Annotated, f audit.Flag) []int {
	rows := make([]int, 0)
	for i, fs := range a.Flags {
		if fs.Get(f) {
			rows = append(rows, i)
		}
	}
	return rows
}

// decimalValue converts amounts for the spreadsheet writer.
func decimalValue(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
