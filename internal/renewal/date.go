package renewal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// wireDateRe matches the legacy ASP.NET JSON date wire format,
	// e.g. "/Date(1672531200000)/" or "/Date(1672531200000-0700)/".
	wireDateRe = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

	// isoDateRe finds an ISO calendar date anywhere inside a string.
	isoDateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

	numericRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// freeFormLayouts are tried in order for strings that match none of the
// structured formats.
var freeFormLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	time.RFC3339,
	time.RFC1123,
}

// ParseDateValue interprets an arbitrary attribute value as a calendar date.
// Accepted forms: time.Time, a bare 4-digit year (1900–2100, Jan 1 UTC),
// epoch milliseconds (> 1e12), epoch seconds (> 1e9), an epoch day count,
// a string containing an ISO YYYY-MM-DD date, the /Date(millis)/ wire
// format, a numeric string (reinterpreted via the numeric rules), or a
// free-form date string parsed best-effort. Returns ok=false for anything
// unparseable; never panics.
func ParseDateValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case float64:
		return parseNumericDate(v)
	case int:
		return parseNumericDate(float64(v))
	case int64:
		return parseNumericDate(float64(v))
	case string:
		return parseStringDate(v)
	default:
		return time.Time{}, false
	}
}

// parseNumericDate applies the numeric interpretation rules: calendar year,
// epoch milliseconds, epoch seconds, then epoch day count.
func parseNumericDate(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	if v == math.Trunc(v) && v >= 1900 && v <= 2100 {
		return time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC(), true
	}
	if v > 1e9 {
		return time.Unix(int64(v), 0).UTC(), true
	}
	if v > 0 {
		// Day count since the Unix epoch, as some assessor exports encode.
		return time.Unix(int64(v)*86400, 0).UTC(), true
	}
	return time.Time{}, false
}

func parseStringDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if match := wireDateRe.FindStringSubmatch(s); match != nil {
		millis, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(millis).UTC(), true
	}

	if match := isoDateRe.FindStringSubmatch(s); match != nil {
		parsed, err := time.Parse("2006-01-02", match[0])
		if err == nil {
			return parsed.UTC(), true
		}
	}

	if numericRe.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return parseNumericDate(v)
	}

	for _, layout := range freeFormLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
