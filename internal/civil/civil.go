// Package civil computes day and month boundaries in the single civil time
// zone shared by every write and read path.
package civil

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	// DefaultZone is the zone used when none is configured.
	DefaultZone = "Asia/Shanghai"

	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

// Clock converts instants to civil dates and months in one location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock for the named IANA zone.
func New(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// MustNew is New for zones known to be valid.
func MustNew(zone string) *Clock {
	c, err := New(zone)
	if err != nil {
		panic(err)
	}
	return c
}

// WithNow returns a copy of the clock whose Now reports the given function.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Clock) Location() *time.Location { return c.loc }

func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Month returns the "YYYY-MM" key of t.
func (c *Clock) Month(t time.Time) string { return t.In(c.loc).Format(MonthLayout) }

// Date returns the "YYYY-MM-DD" key of t.
func (c *Clock) Date(t time.Time) string { return t.In(c.loc).Format(DateLayout) }

// MonthStart returns midnight of the first day of t's civil month.
func (c *Clock) MonthStart(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
}

// MonthRange parses a "YYYY-MM" key and returns [start, end) of that month.
func (c *Clock) MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, month, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, use YYYY-MM: %w", month, err)
	}
	return t, t.AddDate(0, 1, 0), nil
}

// WindowStart returns the oldest date key kept by a trailing window of n days
// ending on date. A bucket is kept iff its key is >= the result.
func WindowStart(date string, n int) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d.AddDate(0, 0, -n).Format(DateLayout), nil
}
