// Package humandate turns human date expressions such as "yesterday",
// "last 3 days" or "2026-10-01..2026-10-05" into calendar days.
package humandate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultQuery is used when the caller supplies an empty expression.
const DefaultQuery = "yesterday"

// maxSpan bounds ranges so a typo cannot fan out into years of lookups.
const maxSpan = 62

// ErrUnrecognized is returned for expressions none of the forms match.
var ErrUnrecognized = errors.New("unrecognized date expression")

var (
	lastDaysPattern = regexp.MustCompile(`^(?:last|past) (\d+) days?$`)
	agoPattern      = regexp.MustCompile(`^(\d+) (day|week)s? ago$`)
	inPattern       = regexp.MustCompile(`^in (\d+) (day|week)s?$`)
	rangePattern    = regexp.MustCompile(`^(.+?)\s*(?:\.\.|\bto\b|\buntil\b)\s*(.+)$`)

	dateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"02.01.2006",
		"2.1.2006",
		"January 2 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
	}
)

// Parse resolves query relative to now and returns the matching days at local
// midnight, in the order the expression implies. "last N days" yields
// yesterday first and walks backwards, matching "N days ago" for 1..N.
func Parse(query string, now time.Time) ([]time.Time, error) {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if q == "" {
		q = DefaultQuery
	}
	today := midnight(now)

	if m := lastDaysPattern.FindStringSubmatch(q); m != nil {
		n, err := count(m[1])
		if err != nil {
			return nil, err
		}
		days := make([]time.Time, 0, n)
		for i := 1; i <= n; i++ {
			days = append(days, today.AddDate(0, 0, -i))
		}
		return days, nil
	}

	if single, ok, err := parseSingle(q, today); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return []time.Time{single}, nil
	}

	if m := rangePattern.FindStringSubmatch(q); m != nil {
		return parseRange(m[1], m[2], today)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnrecognized, query)
}

func parseRange(fromExpr, toExpr string, today time.Time) ([]time.Time, error) {
	from, ok, err := parseSingle(strings.TrimSpace(fromExpr), today)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, fromExpr)
	}
	to, ok, err := parseSingle(strings.TrimSpace(toExpr), today)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, toExpr)
	}
	if to.Before(from) {
		from, to = to, from
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
		if len(days) > maxSpan {
			return nil, fmt.Errorf("date range spans more than %d days", maxSpan)
		}
	}
	return days, nil
}

func parseSingle(q string, today time.Time) (time.Time, bool, error) {
	switch q {
	case "today", "now":
		return today, true, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), true, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), true, nil
	}

	if m := agoPattern.FindStringSubmatch(q); m != nil {
		n, err := count(m[1])
		if err != nil {
			return time.Time{}, false, err
		}
		return today.AddDate(0, 0, -n*unitDays(m[2])), true, nil
	}
	if m := inPattern.FindStringSubmatch(q); m != nil {
		n, err := count(m[1])
		if err != nil {
			return time.Time{}, false, err
		}
		return today.AddDate(0, 0, n*unitDays(m[2])), true, nil
	}
	if d, ok := parseWeekday(q, today); ok {
		return d, true, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, q, today.Location()); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}

// parseWeekday handles "monday" and "last monday", both meaning the most
// recent such day strictly before today.
func parseWeekday(q string, today time.Time) (time.Time, bool) {
	name := strings.TrimPrefix(q, "last ")
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name != full && name != full[:3] {
			continue
		}
		delta := int(today.Weekday() - wd)
		if delta <= 0 {
			delta += 7
		}
		return today.AddDate(0, 0, -delta), true
	}
	return time.Time{}, false
}

func count(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnrecognized, raw)
	}
	if n < 1 || n > maxSpan {
		return 0, fmt.Errorf("day count must be between 1 and %d, got %d", maxSpan, n)
	}
	return n, nil
}

func unitDays(unit string) int {
	if unit == "week" {
		return 7
	}
	return 1
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
