package models

import "time"

// Target is a monitored site, keyed by its normalized URL.
// Only descriptive metadata lives here; statistics are kept in the views below.
type Target struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Screenshot string    `json:"screenshot,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Candidate is one entry produced by the ingestion source.
type Candidate struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
	IssueTitle string `json:"issueTitle,omitempty"`
}

// CheckOutcome is the result of probing one URL.
type CheckOutcome struct {
	URL          string    `json:"url"`
	Status       int       `json:"status"`
	ResponseTime int64     `json:"responseTime"` // milliseconds
	Available    bool      `json:"available"`
	Error        string    `json:"error,omitempty"`
	CheckedAt    time.Time `json:"checkedAt"`

	// Optional target metadata carried along from ingestion.
	Title      string `json:"title,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
}

// LatestStatus is the single "is it up right now" row per URL.
type LatestStatus struct {
	URL          string    `json:"url"`
	Status       int       `json:"status"`
	ResponseTime int64     `json:"responseTime"`
	Available    bool      `json:"available"`
	Error        string    `json:"error,omitempty"`
	CheckedAt    time.Time `json:"checkedAt"`
	Title        string    `json:"title,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Screenshot   string    `json:"screenshot,omitempty"`
}

// HistoryEntry is one append-only check log row.
type HistoryEntry struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Status       int       `json:"status"`
	ResponseTime int64     `json:"responseTime"`
	Available    bool      `json:"available"`
	Error        string    `json:"error,omitempty"`
	CheckedAt    time.Time `json:"checkedAt"`
}

// Counters are the running sums shared by monthly rows and daily buckets.
// TotalChecks always equals SuccessfulChecks + FailedChecks.
type Counters struct {
	TotalChecks       int64 `json:"totalChecks"`
	SuccessfulChecks  int64 `json:"successfulChecks"`
	FailedChecks      int64 `json:"failedChecks"`
	TotalResponseTime int64 `json:"totalResponseTime"`
}

// Add folds one check into the counters.
func (c *Counters) Add(available bool, responseTime int64) {
	c.TotalChecks++
	if available {
		c.SuccessfulChecks++
	} else {
		c.FailedChecks++
	}
	c.TotalResponseTime += responseTime
}

// AvgResponseTime is derived on read, never stored.
func (c Counters) AvgResponseTime() float64 {
	if c.TotalChecks == 0 {
		return 0
	}
	return float64(c.TotalResponseTime) / float64(c.TotalChecks)
}

// UptimePercentage is derived on read, never stored.
func (c Counters) UptimePercentage() float64 {
	if c.TotalChecks == 0 {
		return 0
	}
	return float64(c.SuccessfulChecks) / float64(c.TotalChecks) * 100
}

// MonthlyStat is the rollup of one URL for one civil month ("YYYY-MM").
type MonthlyStat struct {
	URL   string `json:"url"`
	Month string `json:"month"`
	Counters
}

// DailyBucket is one civil date's counters inside a windowed series.
type DailyBucket struct {
	Date string `json:"date"`
	Counters
}

// WindowedDailyStat is the trailing-window series of one URL, sorted by date ascending.
type WindowedDailyStat struct {
	URL     string        `json:"url"`
	Buckets []DailyBucket `json:"stats"`
}

// DayUptime is one point of the month-wide per-URL uptime map.
type DayUptime struct {
	Date   string  `json:"date"`
	Uptime float64 `json:"uptime"` // 0..1
	Count  int64   `json:"count"`
}

// Identity is one rung of the probe ladder: the client a request pretends to be.
type Identity struct {
	Name      string `json:"name" yaml:"name"`
	UserAgent string `json:"userAgent" yaml:"userAgent"`
	Referer   string `json:"referer,omitempty" yaml:"referer"`
}
