package audit

import (
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/shopspring/decimal"
)

// Annotated is a ledger table with one Flags set per entry.
// Flags[i] belongs to Table.Entries[i].
type Annotated struct {
	Table  *ledger.Table
	Flags  []Flags
	Params Params
}

// Len returns the number of annotated entries.
func (a *Annotated) Len() int {
	return len(a.Flags)
}

// Count returns the number of entries with f raised.
func (a *Annotated) Count(f Flag) int {
	n := 0
	for _, fs := range a.Flags {
		if fs.Get(f) {
			n++
		}
	}
	return n
}

// Evaluate computes every flag for every entry of t. It never drops or
// reorders entries and never modifies t.
func Evaluate(t *ledger.Table, p Params) *Annotated {
	n := t.Len()

	keys := make([]string, n)
	gross := make([]decimal.Decimal, n)
	for i, e := range t.Entries {
		keys[i] = e.AccountCode
		gross[i] = e.Gross()
	}
	groups := GroupMeans(keys, gross, p.MeanPolicy)

	keywords := newKeywordMatcher(p.Keywords, p.FoldAccents)

	flags := make([]Flags, n)
	for i, e := range t.Entries {
		g := gross[i]
		fs := &flags[i]

		fs.Set(FlagOutlier, groups[i].Exceeds(g, p.OutlierMultiplier))
		fs.Set(FlagExceedsTolerance, g.GreaterThan(p.Tolerance))
		fs.Set(FlagRoundAmount, isRound(g, p.RoundUnit))
		fs.Set(FlagMissingDescription, isShortDescription(e.Description, p.MinDescriptionLength))
		fs.Set(FlagWeekend, isWeekend(e.Date))
		fs.Set(FlagKeyword, e.Description.Valid && keywords.Match(e.Description.String))
	}

	return &Annotated{Table: t, Flags: flags, Params: p}
}

func isRound(v, unit decimal.Decimal) bool {
	if !v.IsPositive() || !unit.IsPositive() {
		return false
	}
	return v.Mod(unit).IsZero()
}

func isShortDescription(d ledger.Text, minLen int) bool {
	if !d.Valid {
		return true
	}
	return utf8.RuneCountInString(d.String) < minLen
}

func isWeekend(d ledger.Date) bool {
	wd, ok := d.Weekday()
	return ok && (wd == time.Saturday || wd == time.Sunday)
}
