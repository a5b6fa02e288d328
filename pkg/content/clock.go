package content

import (
	"fmt"
	"time"
)

// Clock evaluates "today" in the service's configured time zone. Every
// cache key and period label must come from here so a day rolls over at
// local midnight, not UTC midnight.
type Clock struct {
	loc *time.Location
}

// NewClock loads the named IANA time zone.
func NewClock(tzName string) (Clock, error) {
	if tzName == "" {
		tzName = "Europe/Madrid"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Clock{}, fmt.Errorf("failed to load time zone %q: %w", tzName, err)
	}
	return Clock{loc: loc}, nil
}

// Now returns the current time in the configured zone.
func (c Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// DayKey returns today's ISO date string, the date component of every
// cache key.
func (c Clock) DayKey() string {
	return c.Now().Format("2006-01-02")
}

// DayLabel returns today's display label (day-month-year).
func (c Clock) DayLabel() string {
	return c.Now().Format("02-01-2006")
}

// OffsetHours returns the zone's current UTC offset in hours.
func (c Clock) OffsetHours() float64 {
	_, offsetSeconds := c.Now().Zone()
	return float64(offsetSeconds) / 3600.0
}
