package config

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/JonMunkholm/ledgeraudit/internal/report"
	"github.com/shopspring/decimal"
)

// Params converts the audit settings into rule thresholds.
func (c *AuditConfig) Params() (audit.Params, error) {
	var errs []string
	p := audit.DefaultParams()

	parse := func(env, value string, dst *decimal.Decimal) {
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s (%q) must be a number", env, value))
			return
		}
		*dst = d
	}
	parse("AUDIT_DEFAULT_TOLERANCE", c.DefaultTolerance, &p.Tolerance)
	parse("AUDIT_OUTLIER_MULTIPLIER", c.OutlierMultiplier, &p.OutlierMultiplier)
	parse("AUDIT_ROUND_UNIT", c.RoundUnit, &p.RoundUnit)

	policy, ok := audit.ParseMeanPolicy(c.MeanPolicy)
	if !ok {
		errs = append(errs, fmt.Sprintf("AUDIT_MEAN_POLICY (%q) must be include or exclude", c.MeanPolicy))
	}
	p.MeanPolicy = policy
	p.MinDescriptionLength = c.MinDescriptionLength
	if len(c.Keywords) > 0 {
		p.Keywords = append([]string(nil), c.Keywords...)
	}
	p.FoldAccents = c.FoldAccents

	if len(errs) == 0 {
		if err := p.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return audit.Params{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return p, nil
}

// Schema returns the configured column names.
func (c *LedgerConfig) Schema() ledger.Schema {
	return ledger.Schema{
		Date:        c.DateColumn,
		Debit:       c.DebitColumn,
		Credit:      c.CreditColumn,
		Account:     c.AccountColumn,
		Description: c.DescriptionColumn,
		Gross:       c.GrossColumn,
		Balance:     c.BalanceColumn,
		EntryNumber: c.EntryNumberColumn,
	}
}

// Options converts the ledger settings into loader options.
func (c *LedgerConfig) Options() (ledger.Options, error) {
	var errs []string
	opts := ledger.DefaultOptions()
	opts.Schema = c.Schema()

	for _, col := range opts.Schema.Required() {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, "LEDGER_*_COLUMN names for date, debit, credit, account and description must not be empty")
			break
		}
	}

	order, ok := ledger.ParseDateOrder(c.DateOrder)
	if !ok {
		errs = append(errs, fmt.Sprintf("LEDGER_DATE_ORDER (%q) must be dmy or mdy", c.DateOrder))
	}
	opts.DateOrder = order

	switch strings.ToLower(strings.TrimSpace(c.DecimalSeparator)) {
	case ".", "":
		opts.DecimalSeparator = '.'
	case ",":
		opts.DecimalSeparator = ','
	case "auto":
		opts.DecimalSeparator = 0
	default:
		errs = append(errs, fmt.Sprintf("LEDGER_DECIMAL_SEPARATOR (%q) must be '.', ',' or auto", c.DecimalSeparator))
	}

	switch strings.ToLower(c.Delimiter) {
	case "":
		opts.Delimiter = 0
	case ",", ";", "|":
		opts.Delimiter = rune(c.Delimiter[0])
	case "tab", "\t":
		opts.Delimiter = '\t'
	default:
		errs = append(errs, fmt.Sprintf("LEDGER_DELIMITER (%q) must be ',', ';', '|' or tab", c.Delimiter))
	}

	enc, ok := ledger.ParseEncoding(c.Encoding)
	if !ok {
		errs = append(errs, fmt.Sprintf("LEDGER_ENCODING (%q) must be auto, utf-8 or windows-1252", c.Encoding))
	}
	opts.Encoding = enc

	if len(errs) > 0 {
		return ledger.Options{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return opts, nil
}

// Style converts the report settings into a workbook style.
func (c *ReportConfig) Style() (report.Style, error) {
	var errs []string

	if !report.SupportedLocale(c.Locale) {
		errs = append(errs, fmt.Sprintf("REPORT_LOCALE (%q) must be pt or en", c.Locale))
	}
	if c.ColumnWidth <= 0 || c.ColumnWidth > 255 {
		errs = append(errs, "REPORT_COLUMN_WIDTH must be between 0 and 255")
	}
	if c.FontSize <= 0 {
		errs = append(errs, "REPORT_FONT_SIZE must be positive")
	}
	if c.MethodRowHeight <= 0 || c.MethodRowHeight > 409 {
		errs = append(errs, "REPORT_METHOD_ROW_HEIGHT must be between 0 and 409")
	}
	if len(errs) > 0 {
		return report.Style{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return report.Style{
		Organization:    c.Organization,
		Locale:          c.Locale,
		FontFamily:      c.FontFamily,
		FontSize:        c.FontSize,
		ColumnWidth:     c.ColumnWidth,
		MethodRowHeight: c.MethodRowHeight,
		HeaderFill:      strings.TrimPrefix(c.HeaderFill, "#"),
		DateFormat:      c.DateFormat,
		CurrencyFormat:  c.CurrencyFormat,
	}, nil
}

// Assembler returns the view assembler for the report settings.
func (c *ReportConfig) Assembler() report.Assembler {
	return report.Assembler{
		Columns:     append([]string(nil), c.Columns...),
		OnlyFlagged: c.OnlyFlagged,
	}
}
