package ledger

// convert.go provides lenient conversion of raw ledger cells to typed values.
//
// Ledger exports are messy:
//   - Dates arrive day-first, month-first, ISO, with or without time of day,
//     or as Excel serial numbers when the source is a spreadsheet.
//   - Amounts carry currency symbols, thousands separators, decimal commas
//     and accounting parentheses for negatives.
//   - Excel formula prefixes (="value") leak into CSV exports.
//
// Conversions never fail a load. They report ok=false and the caller
// substitutes the sentinel (unknown date, zero amount).

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a plain number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// DateOrder resolves ambiguous numeric dates such as 03/04/2024.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

// ParseDateOrder converts "dmy"/"mdy" to a DateOrder.
func ParseDateOrder(s string) (DateOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dmy", "day-first", "":
		return DayFirst, true
	case "mdy", "month-first":
		return MonthFirst, true
	default:
		return DayFirst, false
	}
}

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are moved to the previous century.
var TwoDigitYearPivot = 20

var (
	isoLayouts = []string{
		"2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05",
		time.RFC3339, "2006/01/02", "2006.01.02", "20060102",
		"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "2-1-2006", "2.1.2006",
		"2/1/2006 15:04:05", "2/1/2006 15:04",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "1-2-2006", "1.2.2006",
		"1/2/2006 15:04:05", "1/2/2006 15:04",
	}
	dayFirstShortLayouts   = []string{"2/1/06", "2-1-06", "2.1.06"}
	monthFirstShortLayouts = []string{"1/2/06", "1-2-06", "1.2.06"}
)

// ParseDate parses a date cell. Unparsable or empty input yields an
// unknown Date rather than an error.
func ParseDate(s string, order DateOrder) Date {
	s = CleanCell(s)
	if s == "" {
		return Date{}
	}

	long, short := dayFirstLayouts, dayFirstShortLayouts
	if order == MonthFirst {
		long, short = monthFirstLayouts, monthFirstShortLayouts
	}

	for _, layouts := range [][]string{isoLayouts, long} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Date{Time: t, Valid: true}
			}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range short {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > pivotYear {
			t = t.AddDate(-100, 0, 0)
		}
		return Date{Time: t, Valid: true}
	}

	return Date{}
}

// ParseSpreadsheetDate parses a date cell read from a spreadsheet, where
// dates are usually stored as serial day numbers.
func ParseSpreadsheetDate(s string, order DateOrder) Date {
	clean := CleanCell(s)
	if numericRegex.MatchString(clean) {
		serial, err := strconv.ParseFloat(clean, 64)
		if err == nil && serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return Date{Time: t, Valid: true}
			}
		}
		return Date{}
	}
	return ParseDate(s, order)
}

// ParseAmount converts an amount cell to a decimal.
//
// decimalSep selects the decimal separator: '.' treats ',' as a thousands
// separator, ',' does the opposite, and 0 guesses from the last separator
// present. Input that does not fit the separator is rejected: more than one
// decimal separator, a thousands separator after the decimal one, or
// thousands groups that are not three digits. Currency symbols and
// accounting parentheses are accepted.
func ParseAmount(s string, decimalSep rune) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(
		"R$", "",
		"$", "",
		"\u20ac", "", // Euro
		"\u00a3", "", // Pound
		"\u00a0", "",
		" ", "",
	).Replace(s)

	s, ok := normalizeSeparators(s, decimalSep)
	if !ok {
		return decimal.Zero, false
	}

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Amount is ParseAmount with the zero-on-failure policy applied.
func Amount(s string, decimalSep rune) decimal.Decimal {
	d, _ := ParseAmount(s, decimalSep)
	return d
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator
// and no thousands separators remain. It reports false when s does not
// follow decimalSep.
func normalizeSeparators(s string, decimalSep rune) (string, bool) {
	if decimalSep == 0 {
		comma := strings.LastIndex(s, ",")
		dot := strings.LastIndex(s, ".")
		switch {
		case comma >= 0 && dot >= 0 && comma > dot:
			decimalSep = ','
		case comma >= 0 && dot < 0 && strings.Count(s, ",") == 1 && len(s)-comma-1 != 3:
			decimalSep = ','
		default:
			decimalSep = '.'
		}
	}

	dec, thousands := ".", ","
	if decimalSep == ',' {
		dec, thousands = ",", "."
	}

	if strings.Count(s, dec) > 1 {
		return "", false
	}
	intPart, frac, hasFrac := strings.Cut(s, dec)
	if strings.Contains(frac, thousands) {
		return "", false
	}
	if strings.Contains(intPart, thousands) {
		groups := strings.Split(intPart, thousands)
		if strings.TrimLeft(groups[0], "+-") == "" {
			return "", false
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", false
			}
		}
		intPart = strings.Join(groups, "")
	}

	if hasFrac {
		return intPart + "." + frac, true
	}
	return intPart, true
}

// CleanCell removes common export artifacts from a cell value:
//   - surrounding whitespace
//   - Excel formula prefix (="...")
//   - surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
