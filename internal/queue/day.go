package queue

import "time"

// StartOfDay returns midnight of now's calendar day in loc. The day boundary
// is recomputed on every call; it is never cached across requests.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
