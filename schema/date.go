package schema

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// maxEpochMillis bounds numeric dates to the range a JavaScript Date accepts.
const maxEpochMillis = 8.64e15

var errEmptyDate = errors.New("empty date string")

// isoLayouts are tried in order before falling back to dateparse. Layouts
// without a zone are interpreted in UTC.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01",
	"2006",
}

// CoerceDate converts a string or numeric value into a point in time.
// Numbers are milliseconds since the Unix epoch.
func CoerceDate(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		return parseDate(s)
	case KindNumber:
		n, _ := v.Num()
		if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > maxEpochMillis {
			return time.Time{}, fmt.Errorf("timestamp %v out of range", n)
		}
		return time.UnixMilli(int64(n)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("cannot coerce %s to a date", v.Kind())
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyDate
	}
	t, err := parseLoose(s)
	if err != nil {
		return time.Time{}, err
	}
	if !inRange(t) {
		return time.Time{}, fmt.Errorf("date %q out of range", s)
	}
	return t, nil
}

func parseLoose(s string) (time.Time, error) {
	if t, ok := parseISO(s); ok {
		return t, nil
	}
	if expandedYear.MatchString(s) {
		if t, ok := parseExpandedYear(s); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("parse date %q: invalid expanded year date", s)
	}

	// dateparse reads bare digit runs as Unix timestamps and tolerates
	// trailing punctuation; neither is a date string.
	if isDigits(s) || !balancedParens(s) {
		return time.Time{}, fmt.Errorf("parse date %q: unrecognized format", s)
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	if t.Year() < 1 {
		return time.Time{}, fmt.Errorf("parse date %q: unrecognized format", s)
	}
	return t.UTC(), nil
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// expandedYear matches ISO 8601 expanded years ("+275760-09-13T00:00:00.000Z"),
// the form FormatDate writes for years outside 0000-9999.
var expandedYear = regexp.MustCompile(`^([+-])(\d{6})(-.+)?$`)

func parseExpandedYear(s string) (time.Time, bool) {
	m := expandedYear.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	if m[1] == "-" {
		if year == 0 {
			return time.Time{}, false
		}
		year = -year
	}
	// Parse the remainder against a leap year so Feb 29 is accepted, then
	// move it onto the real year.
	ref, ok := parseISO("2000" + m[3])
	if !ok {
		return time.Time{}, false
	}
	if ref.Month() == time.February && ref.Day() == 29 && !isLeap(year) {
		return time.Time{}, false
	}
	t := time.Date(year, ref.Month(), ref.Day(), ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
	return t.UTC(), true
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func balancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func inRange(t time.Time) bool {
	ms := t.UnixMilli()
	return ms >= -maxEpochMillis && ms <= maxEpochMillis
}

// FormatDate renders t in UTC as RFC 3339. Years outside 0000-9999 use the
// ISO 8601 expanded form with a sign and six digits, which CoerceDate reads
// back.
func FormatDate(t time.Time) string {
	t = t.UTC()
	y := t.Year()
	if y >= 0 && y <= 9999 {
		return t.Format(time.RFC3339Nano)
	}
	sign := "+"
	if y < 0 {
		sign, y = "-", -y
	}
	return fmt.Sprintf("%s%06d%s", sign, y, t.Format("-01-02T15:04:05.999999999Z07:00"))
}
