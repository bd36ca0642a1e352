package util

import "time"

const day = 24 * time.Hour

// DaysBetween counts whole UTC calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	from := a.UTC().Truncate(day)
	to := b.UTC().Truncate(day)
	return int(to.Sub(from) / day)
}
