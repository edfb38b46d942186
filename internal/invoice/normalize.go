package invoice

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field cleaning is fail-soft: malformed input never raises, it degrades to a
// safe default. Numerics default to 0.0 while dates become nil - the asymmetry
// is deliberate, because a fabricated date would distort the date range while a
// zero amount only contributes nothing to sums.

var nonNumericChars = regexp.MustCompile(`[^\d.,]`)

// dateFormats are tried in order when parsing invoice dates
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02T15:04:05Z07:00",
}

// NormalizeNumeric extracts a float from a raw currency-ish string. Everything
// that is not a digit, dot or comma is stripped; commas are treated as thousands
// separators and removed. Empty or unparseable input yields 0.0.
func NormalizeNumeric(value string) float64 {
	numericStr := nonNumericChars.ReplaceAllString(value, "")
	numericStr = strings.ReplaceAll(numericStr, ",", "")
	if numericStr == "" {
		return 0.0
	}

	f, err := strconv.ParseFloat(numericStr, 64)
	if err != nil {
		return 0.0
	}
	return f
}

// NormalizeText trims surrounding whitespace and title-cases each word
func NormalizeText(value string) string {
	return cases.Title(language.English).String(strings.TrimSpace(value))
}

// NormalizeDate parses a raw date string against a set of common formats.
// Returns nil when nothing matches; never errors, never defaults to "now".
func NormalizeDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, format := range dateFormats {
		if d, err := time.Parse(format, value); err == nil {
			return &d
		}
	}
	return nil
}
