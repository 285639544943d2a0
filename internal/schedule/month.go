package schedule

import "time"

// Span is an interval-bearing record considered by HighlightDays.
type Span struct {
	Start time.Time
	End   time.Time
}

// HighlightDays returns the set of days-of-month within (year, month)
// that any span's interval touches, inclusive of every calendar day
// the interval spans rather than just its start day. Spans missing
// either endpoint are skipped.
func HighlightDays(year int, month time.Month, spans []Span) map[int]bool {
	days := make(map[int]bool)
	for _, span := range spans {
		if span.Start.IsZero() || span.End.IsZero() || span.End.Before(span.Start) {
			continue
		}
		y, m, d := span.Start.Date()
		cur := time.Date(y, m, d, 0, 0, 0, 0, span.Start.Location())
		ey, em, ed := span.End.Date()
		last := time.Date(ey, em, ed, 0, 0, 0, 0, span.End.Location())
		for !cur.After(last) {
			if cur.Year() == year && cur.Month() == month {
				days[cur.Day()] = true
			}
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return days
}
