package ledger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// ----------------------------------------------------------------------------
// DetectFormat Tests
// ----------------------------------------------------------------------------

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"ledger.csv", FormatDelimited, false},
		{"LEDGER.CSV", FormatDelimited, false},
		{"ledger.txt", FormatDelimited, false},
		{"ledger.xlsx", FormatSpreadsheet, false},
		{"ledger.xls", FormatLegacySpreadsheet, false},
		{"ledger.pdf", 0, true},
		{"ledger", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat(%q) unexpected error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Load Tests
// ----------------------------------------------------------------------------

const sampleCSV = "Data,Débito,Crédito,Cta.C.Part.,Historico\n" +
	"09/03/2024,500,0,1001,pagamento fornecedor\n" +
	"11/03/2024,0,250.50,1001,recebimento cliente\n"

func TestLoad_DelimitedBasic(t *testing.T) {
	path := writeFile(t, "ledger.csv", []byte(sampleCSV))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if table.Format != FormatDelimited {
		t.Errorf("Format = %v, want delimited", table.Format)
	}
	if table.Source != path {
		t.Errorf("Source = %q, want %q", table.Source, path)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	first := table.Entries[0]
	if first.Line != 2 {
		t.Errorf("Line = %d, want 2", first.Line)
	}
	if !first.Date.Valid || first.Date.Time.Format("2006-01-02") != "2024-03-09" {
		t.Errorf("Date = %+v, want 2024-03-09", first.Date)
	}
	if first.AccountCode != "1001" {
		t.Errorf("AccountCode = %q, want 1001", first.AccountCode)
	}
	if first.Description.String != "pagamento fornecedor" || !first.Description.Valid {
		t.Errorf("Description = %+v", first.Description)
	}

	for i, e := range table.Entries {
		if !e.Gross().Equal(e.Debit.Add(e.Credit)) {
			t.Errorf("entry %d: Gross %s != Debit+Credit", i, e.Gross())
		}
	}
	if got := table.Entries[1].Gross().String(); got != "250.5" {
		t.Errorf("second Gross = %s, want 250.5", got)
	}
}

func TestLoad_UnparsableValuesKeepRow(t *testing.T) {
	csv := "Data,Débito,Crédito,Cta.C.Part.,Historico\n" +
		"not-a-date,abc,,1001,estorno\n"
	path := writeFile(t, "ledger.csv", []byte(csv))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}

	e := table.Entries[0]
	if e.Date.Valid {
		t.Error("unparsable date should be unknown")
	}
	if !e.Debit.IsZero() || !e.Credit.IsZero() {
		t.Errorf("Debit=%s Credit=%s, want zero", e.Debit, e.Credit)
	}
	if !e.Gross().IsZero() {
		t.Errorf("Gross = %s, want 0", e.Gross())
	}
}

func TestLoad_AnonymousHeaderBecomesDescription(t *testing.T) {
	csv := "Data,Débito,Crédito,Cta.C.Part.,\n" +
		"09/03/2024,10,0,1001,ajuste manual\n"
	path := writeFile(t, "ledger.csv", []byte(csv))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !table.Has("Historico") {
		t.Fatalf("Columns = %v, want Historico", table.Columns)
	}
	if got := table.Entries[0].Description.String; got != "ajuste manual" {
		t.Errorf("Description = %q, want %q", got, "ajuste manual")
	}
}

func TestLoad_ShortRowMarksCellsAbsent(t *testing.T) {
	csv := "Data,Débito,Crédito,Cta.C.Part.,Historico\n" +
		"09/03/2024,10\n"
	path := writeFile(t, "ledger.csv", []byte(csv))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := table.Entries[0]
	if e.Description.Valid {
		t.Error("missing description cell should be absent")
	}
	if len(e.Cells) != len(table.Columns) {
		t.Errorf("Cells = %d, want %d", len(e.Cells), len(table.Columns))
	}
	if e.Cells[1].String != "10" || !e.Cells[1].Valid {
		t.Errorf("debit cell = %+v", e.Cells[1])
	}
}

func TestLoad_BlankRowsKept(t *testing.T) {
	csv := "Data,Débito,Crédito,Cta.C.Part.,Historico\n" +
		"09/03/2024,10,0,1001,a\n" +
		",,,,\n" +
		"10/03/2024,20,0,1001,b\n"
	path := writeFile(t, "ledger.csv", []byte(csv))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}

	blank := table.Entries[1]
	if blank.Line != 3 {
		t.Errorf("blank Line = %d, want 3", blank.Line)
	}
	if blank.Date.Valid {
		t.Errorf("blank Date = %+v, want unknown", blank.Date)
	}
	if !blank.Gross().IsZero() {
		t.Errorf("blank Gross = %s, want 0", blank.Gross())
	}
	if blank.AccountCode != "" {
		t.Errorf("blank AccountCode = %q, want empty", blank.AccountCode)
	}
	if !blank.Description.Valid || blank.Description.String != "" {
		t.Errorf("blank Description = %+v, want present and empty", blank.Description)
	}
	if table.Entries[2].Line != 4 {
		t.Errorf("Line = %d, want 4", table.Entries[2].Line)
	}
}

func TestNormalize_TrailingBlankRowsDropped(t *testing.T) {
	rows := [][]string{
		{"Data", "Débito", "Crédito", "Cta.C.Part.", "Historico"},
		{"09/03/2024", "10", "0", "1001", "a"},
		{"", "", "", "", ""},
		{"10/03/2024", "20", "0", "1001", "b"},
		{"", "", "", "", ""},
		nil,
		{" "},
	}

	table, err := Normalize(rows, FormatSpreadsheet, quietOptions())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3", table.Len())
	}
	if table.Entries[2].Line != 4 {
		t.Errorf("last Line = %d, want 4", table.Entries[2].Line)
	}
}

func TestLoad_DefaultOptionsBrazilianAmounts(t *testing.T) {
	csv := "Data;Débito;Crédito;Cta.C.Part.;Historico\n" +
		"09/03/2024;R$ 1.000,00;0;1001;pagamento\n" +
		"09/03/2024;1.234,56;0;1001;pagamento\n" +
		"09/03/2024;150000.50;1,5;1001;pagamento\n" +
		"09/03/2024;1.2.3,4;0;1001;pagamento\n"
	path := writeFile(t, "ledger.csv", []byte(csv))

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"1000", "1234.56", "150002", "0"}
	for i, w := range want {
		if got := table.Entries[i].Gross().String(); got != w {
			t.Errorf("entry %d Gross = %s, want %s", i, got, w)
		}
	}
}

func TestLoad_SemicolonAndWindows1252(t *testing.T) {
	// "Débito;Crédito" in Windows-1252 (0xE9 for é).
	data := []byte("Data;D\xe9bito;Cr\xe9dito;Cta.C.Part.;Historico\n" +
		"09/03/2024;1.500,00;0;1001;pagamento\n")
	path := writeFile(t, "ledger.csv", data)

	opts := quietOptions()
	opts.DecimalSeparator = ','
	table, err := Load(path, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !table.Has("Débito") || !table.Has("Crédito") {
		t.Fatalf("Columns = %v, want decoded accented headers", table.Columns)
	}
	if got := table.Entries[0].Debit.String(); got != "1500" {
		t.Errorf("Debit = %s, want 1500", got)
	}
}

func TestLoad_UTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleCSV)...)
	path := writeFile(t, "ledger.csv", data)

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Columns[0] != "Data" {
		t.Errorf("first column = %q, want Data", table.Columns[0])
	}
}

func TestLoad_Spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Data", "Débito", "Crédito", "Cta.C.Part.", "Historico"},
		{45360, 500, 0, "1001", "pagamento"},
		{45361, 0, 125.25, "1002", "estorno"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	table, err := Load(path, quietOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Format != FormatSpreadsheet {
		t.Errorf("Format = %v, want spreadsheet", table.Format)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	first := table.Entries[0]
	if !first.Date.Valid || first.Date.Time.Format("2006-01-02") != "2024-03-09" {
		t.Errorf("Date = %+v, want 2024-03-09", first.Date)
	}
	if got := first.Debit.String(); got != "500" {
		t.Errorf("Debit = %s, want 500", got)
	}
	if got := table.Entries[1].Credit.String(); got != "125.25" {
		t.Errorf("Credit = %s, want 125.25", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), quietOptions())
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("error = %v, want ErrUnreadable", err)
		}
	})

	t.Run("missing spreadsheet", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), quietOptions())
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("error = %v, want ErrUnreadable", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "ledger.pdf", []byte("%PDF"))
		_, err := Load(path, quietOptions())
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "ledger.csv", nil)
		_, err := Load(path, quietOptions())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})

	t.Run("corrupt spreadsheet", func(t *testing.T) {
		path := writeFile(t, "ledger.xlsx", []byte("not a zip archive"))
		_, err := Load(path, quietOptions())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
}

// ----------------------------------------------------------------------------
// Header repair Tests
// ----------------------------------------------------------------------------

func TestRepairHeaders(t *testing.T) {
	got := repairHeaders([]string{" Data ", "Unnamed: 1", "Valor", "Valor", ""}, "Historico")
	want := []string{"Data", "Historico", "Valor", "Valor (2)", "Historico (2)"}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"quoted commas ignored", `"a,b";"c,d";e`, ';'},
		{"default", "single", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffDelimiter([]byte(tt.text)); got != tt.want {
				t.Errorf("sniffDelimiter = %q, want %q", got, tt.want)
			}
		})
	}
}
