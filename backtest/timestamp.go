package backtest

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp parsing is best-effort on every path: a garbled row in a
// multi-million-line tick file must never abort the scan.

// ParseTickTime parses a tick's date and time columns with the configured Go
// layouts. On layout mismatch it falls back to the heuristic parser instead
// of failing.
func ParseTickTime(dateStr, timeStr, dateLayout, timeLayout string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	if dateLayout != "" {
		layout := dateLayout
		value := dateStr
		if timeLayout != "" && timeStr != "" {
			layout += " " + timeLayout
			value += " " + timeStr
		}
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	combined := dateStr
	if timeStr != "" {
		combined += " " + timeStr
	}
	t, _ := ParseSignalTime(combined)
	return t
}

// ParseSignalTime parses a free-form signal timestamp, auto-detecting the
// date component order. It reports false only for empty input; everything
// else parses with safe fallbacks (year 2024, month 1, day 1, zero time).
//
// Detection rules: a first component > 31 is the year (remaining two are
// month then day); otherwise a third component > 31 is the year and whichever
// of the first two exceeds 12 is the day, defaulting to day-first when the
// date is ambiguous (the common forex convention); otherwise the date reads
// year-month-day with 2-digit year expansion.
func ParseSignalTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	fields := strings.Fields(s)
	datePart := fields[0]
	timePart := ""
	if len(fields) > 1 {
		timePart = fields[1]
	}

	year, month, day := parseDateComponents(datePart)
	hour, min, sec := parseTimeComponents(timePart)
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), true
}

func parseDateComponents(datePart string) (year, month, day int) {
	comps := strings.FieldsFunc(datePart, func(r rune) bool {
		return r == '-' || r == '.' || r == '/'
	})
	a := numAt(comps, 0)
	b := numAt(comps, 1)
	c := numAt(comps, 2)

	switch {
	case a > 31:
		year = a
		month = orDefault(b, 1)
		day = orDefault(c, 1)
	case c > 31:
		year = c
		switch {
		case a > 12:
			day = a
			month = orDefault(b, 1)
		case b > 12:
			day = b
			month = orDefault(a, 1)
		default:
			// ambiguous: day-first
			day = orDefault(a, 1)
			month = orDefault(b, 1)
		}
	default:
		year = orDefault(a, 2024)
		if year < 100 {
			year += 2000
		}
		month = orDefault(b, 1)
		day = orDefault(c, 1)
	}
	return year, month, day
}

func parseTimeComponents(timePart string) (hour, min, sec int) {
	comps := strings.Split(timePart, ":")
	hour = orDefault(numAt(comps, 0), 0)
	min = orDefault(numAt(comps, 1), 0)
	sec = orDefault(numAt(comps, 2), 0)
	return hour, min, sec
}

// numAt returns the numeric component at i, or -1 when missing or
// unparseable.
func numAt(comps []string, i int) int {
	if i >= len(comps) {
		return -1
	}
	v, err := strconv.Atoi(strings.TrimSpace(comps[i]))
	if err != nil || v < 0 {
		return -1
	}
	return v
}

func orDefault(v, def int) int {
	if v < 0 {
		return def
	}
	return v
}
