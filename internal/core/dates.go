package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrInvalidDate = errors.New("invalid date")

var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01",
}

var textLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseDate parses a spreadsheet date cell. The result is midnight UTC.
//
// Numeric dates with the year last are read month first ("03/05/2024" is
// March 5) unless the first field cannot be a month ("13/05/2024" is May 13).
// A four-digit leading field means year/month/day. Month names are accepted
// in English and Portuguese ("5 de março de 2024", "5 mar 2024").
func ParseDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t.Year(), int(t.Month()), t.Day())
		}
	}
	if t, ok := parseNumericDate(s); ok {
		return t, nil
	}
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t.Year(), int(t.Month()), t.Day())
		}
	}
	if t, ok := parseNamedMonthPT(s); ok {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// parseNumericDate handles d/m/y-like cells separated by '/', '-' or '.',
// optionally followed by a clock.
func parseNumericDate(s string) (time.Time, bool) {
	datePart, clock, hasClock := strings.Cut(s, " ")
	if hasClock && !isClock(clock) {
		return time.Time{}, false
	}
	sep := strings.IndexAny(datePart, "/-.")
	if sep < 0 {
		return time.Time{}, false
	}
	fields := strings.Split(datePart, datePart[sep:sep+1])
	if len(fields) != 3 {
		return time.Time{}, false
	}
	n := make([]int, 3)
	for i, f := range fields {
		if f == "" || len(f) > 4 || strings.TrimFunc(f, unicode.IsDigit) != "" {
			return time.Time{}, false
		}
		n[i], _ = strconv.Atoi(f)
	}

	var y, m, d int
	switch {
	case len(fields[0]) == 4:
		y, m, d = n[0], n[1], n[2]
	case len(fields[2]) == 4:
		y, m, d = n[2], n[0], n[1]
	case len(fields[2]) == 2:
		y, m, d = twoDigitYear(n[2]), n[0], n[1]
	default:
		return time.Time{}, false
	}
	if len(fields[0]) != 4 && m > 12 {
		m, d = d, m
	}
	t, err := midnight(y, m, d)
	return t, err == nil
}

func isClock(s string) bool {
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// twoDigitYear pivots like time.Parse does for "06": 69-99 are 19xx.
func twoDigitYear(y int) int {
	if y >= 69 {
		return 1900 + y
	}
	return 2000 + y
}

// foldPT lowercases s and drops diacritics. Chained transformers carry state,
// so one is built per call.
func foldPT(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// monthFromNamePT accepts full Portuguese month names and their
// three-letter abbreviations, with or without accents.
func monthFromNamePT(name string) (int, bool) {
	name = strings.TrimSuffix(foldPT(name), ".")
	for i, full := range monthNamesPT {
		full = foldPT(full)
		if name == full || name == full[:3] {
			return i + 1, true
		}
	}
	return 0, false
}

// parseNamedMonthPT reads "5 de março de 2024", "05 mar 2024", "5-mar-2024"
// and "março 5, 2024".
func parseNamedMonthPT(s string) (time.Time, bool) {
	var tokens []string
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-' || r == ','
	}) {
		if strings.EqualFold(tok, "de") {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) != 3 {
		return time.Time{}, false
	}

	dayTok, monthTok := tokens[0], tokens[1]
	m, ok := monthFromNamePT(monthTok)
	if !ok {
		dayTok, monthTok = tokens[1], tokens[0]
		if m, ok = monthFromNamePT(monthTok); !ok {
			return time.Time{}, false
		}
	}
	d, err := strconv.Atoi(dayTok)
	if err != nil {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(tokens[2])
	if err != nil || len(tokens[2]) != 4 {
		return time.Time{}, false
	}
	t, err := midnight(y, m, d)
	return t, err == nil
}

// midnight builds a UTC date, rejecting values time.Date would normalize.
func midnight(y, m, d int) (time.Time, error) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, ErrInvalidDate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
