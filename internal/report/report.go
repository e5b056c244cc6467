// Package report serves read-only projections over the stored views.
package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"linkmon/internal/civil"
	"linkmon/internal/models"
	"linkmon/internal/storage"
	"linkmon/internal/urlutil"
)

// ErrInvalidInput marks caller mistakes such as a missing URL or a bad month key.
var ErrInvalidInput = errors.New("invalid input")

const (
	defaultDataLimit = 100
	maxPageSize      = 100
)

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Service answers queries against a Storer.
type Service struct {
	store      storage.Storer
	clock      *civil.Clock
	pageSize   int
	windowDays int
}

// New creates a Service.
func New(store storage.Storer, clock *civil.Clock, pageSize, windowDays int) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Service{store: store, clock: clock, pageSize: pageSize, windowDays: windowDays}
}

// MonthSummary is a MonthlyStat with its derived figures filled in.
type MonthSummary struct {
	Month string `json:"month"`
	models.Counters
	AvgResponseTime  float64 `json:"avgResponseTime"`
	UptimePercentage float64 `json:"uptimePercentage"`
}

// Summarize derives the read-side figures of a monthly rollup.
func Summarize(m models.MonthlyStat) MonthSummary {
	return MonthSummary{
		Month:            m.Month,
		Counters:         m.Counters,
		AvgResponseTime:  m.AvgResponseTime(),
		UptimePercentage: m.UptimePercentage(),
	}
}

// Pagination describes one history page.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// HistoryPage is the current month's history of one URL plus past months collapsed to rollups.
type HistoryPage struct {
	Data           []models.HistoryEntry `json:"data"`
	MonthlySummary []MonthSummary        `json:"monthlySummary"`
	CurrentMonth   string                `json:"currentMonth"`
	Pagination     Pagination            `json:"pagination"`
}

// CurrentMonthStats is the current civil month of one URL, bucketed by day.
type CurrentMonthStats struct {
	URL   string               `json:"url"`
	Month string               `json:"month"`
	Stats []models.DailyBucket `json:"stats"`
}

// MonthlyUptime maps each URL to its per-day uptime within Month.
type MonthlyUptime struct {
	Month string                        `json:"month"`
	Data  map[string][]models.DayUptime `json:"data"`
}

// DataFilter selects raw history rows.
type DataFilter struct {
	URL       string
	Available *bool
	Limit     int
}

func requireURL(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	return urlutil.Normalize(url), nil
}

// Latest returns the current status of url, or storage.ErrNotFound.
func (s *Service) Latest(ctx context.Context, url string) (*models.LatestStatus, error) {
	url, err := requireURL(url)
	if err != nil {
		return nil, err
	}
	return s.store.GetLatestStatus(ctx, url)
}

// ListLatest returns the current status of every URL.
func (s *Service) ListLatest(ctx context.Context) ([]models.LatestStatus, error) {
	out, err := s.store.ListLatestStatuses(ctx)
	if out == nil && err == nil {
		out = []models.LatestStatus{}
	}
	return out, err
}

// History pages through the current month's checks of url, newest first.
func (s *Service) History(ctx context.Context, url string, page, limit int) (*HistoryPage, error) {
	url, err := requireURL(url)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, maxPageSize)

	now := s.clock.Now()
	current := s.clock.Month(now)
	params := storage.ListHistoryParams{URL: url, Since: s.clock.MonthStart(now)}

	total, err := s.store.CountHistory(ctx, params)
	if err != nil {
		return nil, err
	}
	params.Offset = (page - 1) * limit
	params.Limit = limit
	rows, err := s.store.ListHistory(ctx, params)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.HistoryEntry{}
	}

	summaries := []MonthSummary{}
	if page == 1 {
		months, err := s.store.ListMonthlyStats(ctx, url)
		if err != nil {
			return nil, err
		}
		for _, m := range months {
			if m.Month != current {
				summaries = append(summaries, Summarize(m))
			}
		}
	}

	return &HistoryPage{
		Data:           rows,
		MonthlySummary: summaries,
		CurrentMonth:   current,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: params.Offset+len(rows) < total,
		},
	}, nil
}

// Recent returns the trailing-window series of url. Buckets older than the
// window as of today are hidden even if no write has evicted them yet.
func (s *Service) Recent(ctx context.Context, url string) (*models.WindowedDailyStat, error) {
	url, err := requireURL(url)
	if err != nil {
		return nil, err
	}
	all, err := s.recent(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return &models.WindowedDailyStat{URL: url, Buckets: []models.DailyBucket{}}, nil
	}
	return &all[0], nil
}

// RecentAll returns the trailing-window series of every URL.
func (s *Service) RecentAll(ctx context.Context) ([]models.WindowedDailyStat, error) {
	return s.recent(ctx, "")
}

func (s *Service) recent(ctx context.Context, url string) ([]models.WindowedDailyStat, error) {
	series, err := s.store.ListDailyStats(ctx, url)
	if err != nil {
		return nil, err
	}
	cutoff, err := civil.WindowStart(s.clock.Date(s.clock.Now()), s.windowDays)
	if err != nil {
		return nil, err
	}
	out := make([]models.WindowedDailyStat, 0, len(series))
	for _, ws := range series {
		kept := ws.Buckets[:0:0]
		for _, b := range ws.Buckets {
			if b.Date >= cutoff {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			out = append(out, models.WindowedDailyStat{URL: ws.URL, Buckets: kept})
		}
	}
	return out, nil
}

// CurrentMonth re-buckets the current civil month's history of url by day.
func (s *Service) CurrentMonth(ctx context.Context, url string) (*CurrentMonthStats, error) {
	url, err := requireURL(url)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	rows, err := s.store.ListHistory(ctx, storage.ListHistoryParams{URL: url, Since: s.clock.MonthStart(now)})
	if err != nil {
		return nil, err
	}

	byDate := map[string]*models.DailyBucket{}
	for _, r := range rows {
		d := s.clock.Date(r.CheckedAt)
		b, ok := byDate[d]
		if !ok {
			b = &models.DailyBucket{Date: d}
			byDate[d] = b
		}
		b.Add(r.Available, r.ResponseTime)
	}
	stats := make([]models.DailyBucket, 0, len(byDate))
	for _, b := range byDate {
		stats = append(stats, *b)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })

	return &CurrentMonthStats{URL: url, Month: s.clock.Month(now), Stats: stats}, nil
}

// MonthlyUptime aggregates history into per-URL, per-day uptime for month in zone.
// Empty month means the current one; an empty result falls back to the latest
// month that has any history.
func (s *Service) MonthlyUptime(ctx context.Context, month, zone string) (*MonthlyUptime, error) {
	clock := s.clock
	if zone != "" {
		c, err := civil.New(zone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		clock = c.WithNow(s.clock.Now)
	}

	explicit := month != ""
	if !explicit {
		month = clock.Month(clock.Now())
	} else if !monthRe.MatchString(month) {
		return nil, fmt.Errorf("%w: invalid month format %q, use YYYY-MM", ErrInvalidInput, month)
	}

	data, err := s.uptimeFor(ctx, clock, month)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		latest, err := s.store.LatestCheckedAt(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			if m := clock.Month(latest); m != month {
				month = m
				if data, err = s.uptimeFor(ctx, clock, month); err != nil {
					return nil, err
				}
			}
		}
	}
	return &MonthlyUptime{Month: month, Data: data}, nil
}

func (s *Service) uptimeFor(ctx context.Context, clock *civil.Clock, month string) (map[string][]models.DayUptime, error) {
	start, end, err := clock.MonthRange(month)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rows, err := s.store.ListHistory(ctx, storage.ListHistoryParams{Since: start, Until: end})
	if err != nil {
		return nil, err
	}

	type key struct{ url, date string }
	counts := map[key]*models.Counters{}
	for _, r := range rows {
		k := key{r.URL, clock.Date(r.CheckedAt)}
		c, ok := counts[k]
		if !ok {
			c = &models.Counters{}
			counts[k] = c
		}
		c.Add(r.Available, r.ResponseTime)
	}

	data := map[string][]models.DayUptime{}
	for k, c := range counts {
		data[k.url] = append(data[k.url], models.DayUptime{
			Date:   k.date,
			Uptime: c.UptimePercentage() / 100,
			Count:  c.TotalChecks,
		})
	}
	for _, days := range data {
		sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	}
	return data, nil
}

// Data lists raw history rows newest first.
func (s *Service) Data(ctx context.Context, f DataFilter) ([]models.HistoryEntry, error) {
	if f.Limit <= 0 {
		f.Limit = defaultDataLimit
	}
	params := storage.ListHistoryParams{Available: f.Available, Limit: f.Limit}
	if f.URL != "" {
		params.URL = urlutil.Normalize(f.URL)
	}
	rows, err := s.store.ListHistory(ctx, params)
	if rows == nil && err == nil {
		rows = []models.HistoryEntry{}
	}
	return rows, err
}
