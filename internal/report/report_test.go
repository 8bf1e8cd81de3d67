package report

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/xuri/excelize/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAnnotated(t *testing.T) *audit.Annotated {
	t.Helper()
	rows := [][]string{
		{"Data", "Débito", "Crédito", "Cta.C.Part.", "", "Número"},
		{"09/03/2024", "500", "0", "A1", "ajuste de saldo", "1"},
		{"11/03/2024", "20", "0", "A1", "pagamento", "2"},
		{"not-a-date", "abc", "30", "B2", "", "3"},
		{"12/03/2024", "0", "150.75", "B2"},
	}
	opts := ledger.DefaultOptions()
	opts.Logger = discardLogger()
	table, err := ledger.Normalize(rows, ledger.FormatDelimited, opts)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	p := audit.DefaultParams()
	p.Tolerance = audit.DefaultParams().RoundUnit
	return audit.Evaluate(table, p)
}

func fixedWriter() *Writer {
	w := NewWriter(DefaultStyle(), discardLogger())
	w.Now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }
	return w
}

// ----------------------------------------------------------------------------
// Assemble Tests
// ----------------------------------------------------------------------------

func TestAssemble_Views(t *testing.T) {
	a := sampleAnnotated(t)
	procs := audit.DefaultProcedures(a.Params)

	views := Assemble(a, procs)

	if len(views) != len(procs) {
		t.Fatalf("views = %d, want %d", len(views), len(procs))
	}

	original := a.Table.Columns
	full := views[0].Headers()
	wantFull := append(append([]string(nil), original...), "Valor_Bruto",
		"10x_Media", "Excede_ET", "Redondo", "Sem_Hist", "Fds", "Palavra_Chave")
	if !reflect.DeepEqual(full, wantFull) {
		t.Errorf("full headers = %v, want %v", full, wantFull)
	}

	for _, v := range views[1:] {
		h := v.Headers()
		if len(h) > len(original)+1 {
			t.Errorf("%s: %d columns, want at most %d", v.Procedure.Sheet, len(h), len(original)+1)
		}
		if h[len(h)-1] != v.Procedure.Flag.Column() {
			t.Errorf("%s: last column %q, want %q", v.Procedure.Sheet, h[len(h)-1], v.Procedure.Flag.Column())
		}
		if v.Len() != a.Len() {
			t.Errorf("%s: rows = %d, want %d", v.Procedure.Sheet, v.Len(), a.Len())
		}
	}
}

func TestAssemble_RowOrderAndValues(t *testing.T) {
	a := sampleAnnotated(t)
	views := Assemble(a, audit.DefaultProcedures(a.Params))
	full := views[0]

	for i := 0; i < full.Len(); i++ {
		row := full.Row(i)
		if got, want := row[3], a.Table.Entries[i].AccountCode; got != want {
			t.Errorf("row %d account = %v, want %v", i, got, want)
		}
	}

	// Row 3 has an unparsable date and a non-numeric debit.
	row := full.Row(2)
	if row[0] != nil {
		t.Errorf("unknown date = %v, want nil", row[0])
	}
	if got := row[6]; got == nil {
		t.Error("gross value missing")
	}

	// Row 4 is short: description and entry number are absent.
	short := full.Row(3)
	if short[4] != nil || short[5] != nil {
		t.Errorf("absent cells = %v, %v; want nil", short[4], short[5])
	}
}

func TestAssembler_OmitsAbsentColumns(t *testing.T) {
	a := sampleAnnotated(t)
	as := Assembler{Columns: []string{"Data", "Saldo-Exercicio", "Historico", "Valor_Bruto"}}

	views := as.Assemble(a, audit.DefaultProcedures(a.Params))

	full := views[0].Headers()
	if full[0] != "Data" || full[1] != "Historico" || full[2] != "Valor_Bruto" {
		t.Errorf("full headers = %v", full)
	}
	for _, h := range full {
		if h == "Saldo-Exercicio" {
			t.Error("absent column should be omitted")
		}
	}

	weekend := views[5].Headers()
	want := []string{"Data", "Historico", "Fds"}
	if !reflect.DeepEqual(weekend, want) {
		t.Errorf("weekend headers = %v, want %v", weekend, want)
	}
}

func TestAssembler_OnlyFlagged(t *testing.T) {
	a := sampleAnnotated(t)
	views := Assembler{OnlyFlagged: true}.Assemble(a, audit.DefaultProcedures(a.Params))

	for _, v := range views[1:] {
		if v.Len() != a.Count(v.Procedure.Flag) {
			t.Errorf("%s: rows = %d, want %d", v.Procedure.Sheet, v.Len(), a.Count(v.Procedure.Flag))
		}
		last := len(v.Columns) - 1
		for i := 0; i < v.Len(); i++ {
			if v.Row(i)[last] != true {
				t.Errorf("%s: row %d not flagged", v.Procedure.Sheet, i)
			}
		}
	}
	if views[0].Len() != a.Len() {
		t.Errorf("full listing rows = %d, want %d", views[0].Len(), a.Len())
	}
}

// ----------------------------------------------------------------------------
// Writer Tests
// ----------------------------------------------------------------------------

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	a := sampleAnnotated(t)
	views := Assemble(a, audit.DefaultProcedures(a.Params))
	path := filepath.Join(dir, "Razao_Auditado_Final.xlsx")
	if err := fixedWriter().WriteWorkbook(path, views, Meta{RunID: "run-1", Source: "ledger.csv"}); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	return path
}

func TestWriteWorkbook_Layout(t *testing.T) {
	path := writeSample(t, t.TempDir())

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	wantSheets := []string{"Geral", "10xMedia", "ExcedeET", "Redondo", "Sem Historico", "Final De Semana", "Palavras Chave"}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, wantSheets) {
		t.Fatalf("sheets = %v, want %v", got, wantSheets)
	}

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "Villela e Associados Auditoria e Consultoria Ltda."},
		{"A2", "RELATÓRIO DE AUDITORIA - SEM HISTORICO"},
		{"A3", "Processado em: 9 de março de 2024"},
		{"A4", "Objetivo:"},
		{"A5", "Detectar lançamentos com descrições ausentes ou curtas."},
		{"A6", "Procedimento Feito:"},
		{"A8", "Data"},
		{"E8", "Historico"},
		{"G8", "Sem_Hist"},
		{"D9", "A1"},
		{"D12", "B2"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue("Sem Historico", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	merges, err := f.GetMergeCells("Sem Historico")
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 5 {
		t.Errorf("merges = %d, want 5", len(merges))
	}
	for _, m := range merges {
		if !strings.HasPrefix(m.GetStartAxis(), "A") || !strings.HasPrefix(m.GetEndAxis(), "G") {
			t.Errorf("merge %s:%s should span A..G", m.GetStartAxis(), m.GetEndAxis())
		}
	}

	width, err := f.GetColWidth("Geral", "C")
	if err != nil {
		t.Fatalf("GetColWidth: %v", err)
	}
	if width != 16 {
		t.Errorf("column width = %v, want 16", width)
	}

	props, err := f.GetDocProps()
	if err != nil {
		t.Fatalf("GetDocProps: %v", err)
	}
	if props.Identifier != "run-1" {
		t.Errorf("doc identifier = %q, want run-1", props.Identifier)
	}
}

func TestWriteWorkbook_HeaderStyle(t *testing.T) {
	path := writeSample(t, t.TempDir())

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	id, err := f.GetCellStyle("Geral", "A8")
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(id)
	if err != nil {
		t.Fatalf("GetStyle: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header should be bold")
	}
	if len(style.Fill.Color) == 0 || !strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), "A6A6A6") {
		t.Errorf("header fill = %v, want A6A6A6", style.Fill.Color)
	}
}

func TestWriteWorkbook_Deterministic(t *testing.T) {
	first := writeSample(t, t.TempDir())
	second := writeSample(t, t.TempDir())

	for _, sheet := range []string{"Geral", "10xMedia", "Palavras Chave"} {
		a := readRows(t, first, sheet)
		b := readRows(t, second, sheet)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s differs between runs", sheet)
		}
	}
}

func TestWriteWorkbook_NoPartialOutput(t *testing.T) {
	a := sampleAnnotated(t)
	views := Assemble(a, audit.DefaultProcedures(a.Params))

	path := filepath.Join(t.TempDir(), "missing-dir", "out.xlsx")
	err := fixedWriter().WriteWorkbook(path, views, Meta{})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("error = %v, want ErrWrite", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should name the path", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no output should exist after failure")
	}
}

func TestWriteWorkbook_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "Razao_Auditado_Final.xlsx" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir contents = %v, want only the report", names)
	}
}

func TestRender_Idempotent(t *testing.T) {
	a := sampleAnnotated(t)
	views := Assemble(a, audit.DefaultProcedures(a.Params))
	w := fixedWriter()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := w.Render(f, views[1]); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	once, err := f.GetRows("10xMedia", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}

	if _, err := w.Render(f, views[1]); err != nil {
		t.Fatalf("second Render: %v", err)
	}
	twice, err := f.GetRows("10xMedia", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Error("rendering twice changed the sheet contents")
	}
	merges, err := f.GetMergeCells("10xMedia")
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 5 {
		t.Errorf("merges after re-render = %d, want 5", len(merges))
	}
}

func TestRender_SingleColumnSkipsMerges(t *testing.T) {
	a := sampleAnnotated(t)
	as := Assembler{Columns: []string{"does-not-exist"}}
	views := as.Assemble(a, audit.DefaultProcedures(a.Params))

	f := excelize.NewFile()
	defer f.Close()

	// Only the flag column survives the restriction.
	sheet, err := fixedWriter().Render(f, views[1])
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 0 {
		t.Errorf("merges = %d, want 0 for a single column", len(merges))
	}
}

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows(%s): %v", sheet, err)
	}
	return rows
}

// ----------------------------------------------------------------------------
// Helper Tests
// ----------------------------------------------------------------------------

func TestLongDate(t *testing.T) {
	d := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		locale string
		want   string
	}{
		{"pt", "9 de março de 2024"},
		{"pt-BR", "9 de março de 2024"},
		{"en", "March 9, 2024"},
		{"xx", "9 de março de 2024"},
	}
	for _, tt := range tests {
		if got := LongDate(d, tt.locale); got != tt.want {
			t.Errorf("LongDate(%s) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Geral", "Geral"},
		{"a/b:c", "a-b-c"},
		{"", "Sheet"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
