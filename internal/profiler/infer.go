package profiler

import (
	"regexp"
	"strings"
	"time"
)

// Primitive cell types, from most to least specific during inference.
const (
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeString  = "string"
)

var (
	reNumber  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	reBoolean = regexp.MustCompile(`(?i)^(true|false|yes|no|0|1)$`)
	reDateYMD = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)
	reDateMDY = regexp.MustCompile(`^\d{1,2}[-/]\d{1,2}[-/]\d{2,4}$`)
)

// Layouts tried for date-shaped values. The second group reads a/b/c as
// month/day/year, matching the upstream behavior for ambiguous dates.
var dateLayoutsYMD = []string{"2006-1-2", "2006/1/2"}
var dateLayoutsMDY = []string{"1/2/2006", "1-2-2006", "1/2/06", "1-2-06"}

// InferType classifies a trimmed cell value. First match wins:
// number, then boolean, then date, else string. Empty values classify as
// string but callers exclude them from tallies.
func InferType(rawValue string) string {
	value := strings.TrimSpace(rawValue)
	if value == "" {
		return TypeString
	}

	if reNumber.MatchString(value) {
		return TypeNumber
	}

	if reBoolean.MatchString(value) {
		return TypeBoolean
	}

	if isDateLike(value) {
		return TypeDate
	}

	return TypeString
}

// isDateLike reports whether value matches one of the two date shapes, parses
// to a real calendar date, and lands in [1900, 2100].
func isDateLike(value string) bool {
	_, ok := parseDate(value)
	return ok
}

func parseDate(value string) (time.Time, bool) {
	var layouts []string
	switch {
	case reDateYMD.MatchString(value):
		layouts = dateLayoutsYMD
	case reDateMDY.MatchString(value):
		layouts = dateLayoutsMDY
	default:
		return time.Time{}, false
	}

	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if year := parsed.Year(); year >= 1900 && year <= 2100 {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// normalizeDateSafe rewrites a date-like value to YYYY-MM-DD and leaves
// anything else untouched.
func normalizeDateSafe(value string) string {
	parsed, ok := parseDate(value)
	if !ok {
		return value
	}
	return parsed.Format("2006-01-02")
}

// cleanCell replaces non-breaking spaces and trims surrounding whitespace.
func cleanCell(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, " ", " "))
}
