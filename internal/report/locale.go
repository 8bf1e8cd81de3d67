package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labels are the fixed texts of the metadata block.
type Labels struct {
	ReportTitle string // prefix of row 2, followed by the sheet name
	Processed   string
	Objective   string
	Method      string
}

type locale struct {
	tag    language.Tag
	labels Labels
	months [12]string
	date   func(t time.Time, months [12]string) string
}

var locales = map[string]locale{
	"pt": {
		tag: language.BrazilianPortuguese,
		labels: Labels{
			ReportTitle: "RELATÓRIO DE AUDITORIA",
			Processed:   "Processado em:",
			Objective:   "Objetivo:",
			Method:      "Procedimento Feito:",
		},
		months: [12]string{
			"janeiro", "fevereiro", "março", "abril", "maio", "junho",
			"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
		},
		date: func(t time.Time, m [12]string) string {
			return fmt.Sprintf("%d de %s de %d", t.Day(), m[t.Month()-1], t.Year())
		},
	},
	"en": {
		tag: language.English,
		labels: Labels{
			ReportTitle: "AUDIT REPORT",
			Processed:   "Processed on:",
			Objective:   "Objective:",
			Method:      "Procedure Performed:",
		},
		months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		date: func(t time.Time, m [12]string) string {
			return fmt.Sprintf("%s %d, %d", m[t.Month()-1], t.Day(), t.Year())
		},
	},
}

// SupportedLocale reports whether a locale code has labels and month names.
func SupportedLocale(code string) bool {
	_, ok := locales[normalizeLocale(code)]
	return ok
}

func lookupLocale(code string) locale {
	if l, ok := locales[normalizeLocale(code)]; ok {
		return l
	}
	return locales["pt"]
}

// normalizeLocale reduces "pt-BR", "pt_br" and "PT" to "pt".
func normalizeLocale(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return code
}

// LongDate formats t as a written-out date in the given locale,
// e.g. "9 de março de 2024".
func LongDate(t time.Time, code string) string {
	l := lookupLocale(code)
	return l.date(t, l.months)
}

// upper upper-cases s under the locale's casing rules.
func (l locale) upper(s string) string {
	return cases.Upper(l.tag).String(s)
}
