package parser

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader reduces a free-text column name to a comparable form:
// lower-cased, diacritics stripped, everything but letters and digits
// removed. "Nom Prénom" and "nom-prenom" normalize identically.
func NormalizeHeader(name string) string {
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritics removes combining marks after NFD decomposition, so that
// 'é' becomes 'e' and 'ç' becomes 'c'.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExtractAmount pulls a numeric value out of a formatted amount cell such as
// "1 234,56 €". Non-numeric characters are dropped except separators; a
// decimal comma becomes a decimal point. When both separators appear, the
// dots are treated as thousands grouping. An unparseable cell yields 0.
func ExtractAmount(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, false
	}

	commas, dots := strings.Count(s, ","), strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		// Both present: the one appearing last is the decimal separator,
		// the other is grouping ("1.234,56" as well as "1,234.56").
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		// Grouping commas only, e.g. "1,234,567".
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		// Grouping dots only, e.g. "1.234.567".
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
