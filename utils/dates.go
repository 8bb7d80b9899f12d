// utils/dates.go
package utils

import (
	"time"
	_ "time/tzdata"
)

// WallClockIn reads the clock fields of a zone-less timestamp as a time in loc.
func WallClockIn(naive time.Time, loc *time.Location) time.Time {
	year, month, day := naive.Date()
	hour, min, sec := naive.Clock()
	return time.Date(year, month, day, hour, min, sec, naive.Nanosecond(), loc)
}

// NaiveUTC drops t's zone, keeping its clock fields under UTC. It is the
// inverse of WallClockIn and matches how zone-less columns come back from
// the database.
func NaiveUTC(t time.Time) time.Time {
	return WallClockIn(t, time.UTC)
}

// LoadLocation resolves the first valid zone name, falling back to UTC.
func LoadLocation(names ...string) *time.Location {
	for _, name := range names {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}
