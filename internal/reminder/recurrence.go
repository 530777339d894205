package reminder

import (
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// NextOccurrence computes the next firing time for a recurrence pattern,
// interpreted in the named zone. Matching is keyword-based and evaluated in
// precedence order; anything unrecognized falls back to daily. ok=false means
// the caller should give up scheduling (bad timezone or other internal
// failure), never that the pattern was merely unknown.
//
// Wall-clock time of day is preserved across the jump (AddDate semantics),
// which is what users expect around DST changes.
func NextOccurrence(current time.Time, pattern, tz string) (next time.Time, ok bool) {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return time.Time{}, false
	}
	cur := current.In(loc)
	p := strings.ToLower(pattern)

	if wd, found := explicitWeekday(p); found {
		// Jump into the following week, then align to the requested weekday
		// within that week (weeks start on Sunday).
		base := cur.AddDate(0, 0, 7)
		return base.AddDate(0, 0, int(wd)-int(base.Weekday())), true
	}

	switch {
	case strings.Contains(p, "weekday"):
		n := cur.AddDate(0, 0, 1)
		switch n.Weekday() {
		case time.Saturday:
			n = n.AddDate(0, 0, 2)
		case time.Sunday:
			n = n.AddDate(0, 0, 1)
		}
		return n, true

	case strings.Contains(p, "weekend"):
		switch cur.Weekday() {
		case time.Saturday:
			return cur.AddDate(0, 0, 1), true
		case time.Sunday:
			return cur.AddDate(0, 0, 6), true
		default:
			return cur.AddDate(0, 0, int(time.Saturday)-int(cur.Weekday())), true
		}

	case strings.Contains(p, "monthly"), strings.Contains(p, "every month"):
		return cur.AddDate(0, 1, 0), true

	case strings.Contains(p, "weekly"), strings.Contains(p, "every week"):
		return cur.AddDate(0, 0, 7), true

	default:
		// "daily", "every day", and any unrecognized pattern.
		return cur.AddDate(0, 0, 1), true
	}
}

func explicitWeekday(p string) (time.Weekday, bool) {
	for name, wd := range weekdayNames {
		if strings.Contains(p, "every "+name) {
			return wd, true
		}
	}
	return 0, false
}
