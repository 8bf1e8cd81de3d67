package audit

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// keywordMatcher tests descriptions against a keyword list in one pass.
// It holds a stateful caser and must not be shared between goroutines.
type keywordMatcher struct {
	caser       cases.Caser
	foldAccents bool
	keywords    []string
}

func newKeywordMatcher(keywords []string, foldAccents bool) *keywordMatcher {
	m := &keywordMatcher{
		caser:       cases.Fold(),
		foldAccents: foldAccents,
	}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.keywords = append(m.keywords, m.fold(k))
	}
	return m
}

func (m *keywordMatcher) fold(s string) string {
	s = m.caser.String(s)
	if m.foldAccents {
		s = stripMarks(s)
	}
	return s
}

// Match reports whether s contains any keyword.
func (m *keywordMatcher) Match(s string) bool {
	if s == "" || len(m.keywords) == 0 {
		return false
	}
	s = m.fold(s)
	for _, k := range m.keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// stripMarks removes combining diacritics ("sócio" -> "socio").
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
