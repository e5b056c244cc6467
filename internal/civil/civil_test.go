package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockKeysUseCivilZone(t *testing.T) {
	c := MustNew("Asia/Shanghai")

	// 17:00 UTC on Oct 31 is already Nov 1 in UTC+8.
	ts := time.Date(2023, 10, 31, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-11", c.Month(ts))
	assert.Equal(t, "2023-11-01", c.Date(ts))

	ts = time.Date(2023, 10, 31, 15, 59, 59, 0, time.UTC)
	assert.Equal(t, "2023-10", c.Month(ts))
	assert.Equal(t, "2023-10-31", c.Date(ts))
}

func TestMonthStart(t *testing.T) {
	c := MustNew("Asia/Shanghai")
	start := c.MonthStart(time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 29, 16, 0, 0, 0, time.UTC), start.UTC())
}

func TestMonthRange(t *testing.T) {
	c := MustNew("UTC")

	start, end, err := c.MonthRange("2023-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), end.UTC())

	_, _, err = c.MonthRange("2023-13")
	assert.Error(t, err)
	_, _, err = c.MonthRange("202312")
	assert.Error(t, err)
}

func TestWindowStart(t *testing.T) {
	got, err := WindowStart("2024-03-01", 30)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", got)

	_, err = WindowStart("not-a-date", 30)
	assert.Error(t, err)
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	assert.Error(t, err)

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultZone, c.Location().String())
}

func TestWithNow(t *testing.T) {
	fixed := time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)
	c := MustNew("Asia/Shanghai").WithNow(func() time.Time { return fixed })
	assert.Equal(t, "2024-06-01", c.Date(c.Now()))
}
