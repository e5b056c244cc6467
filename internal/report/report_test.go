package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkmon/internal/civil"
	"linkmon/internal/models"
	"linkmon/internal/recorder"
	"linkmon/internal/storage"
	"linkmon/internal/storage/sqlite"
)

// now is 2024-03-15 12:00 in Asia/Shanghai.
var now = time.Date(2024, 3, 15, 4, 0, 0, 0, time.UTC)

type fixture struct {
	store *sqlite.SQLiteStore
	rec   *recorder.Recorder
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	clock := civil.MustNew(civil.DefaultZone).WithNow(func() time.Time { return now })
	return &fixture{
		store: store,
		rec:   recorder.New(store, clock, 30),
		svc:   New(store, clock, 2, 30),
	}
}

func (f *fixture) record(t *testing.T, url string, at time.Time, available bool, rt int64) {
	t.Helper()
	status := 200
	if !available {
		status = 500
	}
	require.NoError(t, f.rec.Record(context.Background(), models.CheckOutcome{
		URL: url, Status: status, Available: available, ResponseTime: rt, CheckedAt: at,
	}))
}

func TestLatest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Latest(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Latest(ctx, "https://none.example")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	f.record(t, "https://a.example", now, true, 10)
	ls, err := f.svc.Latest(ctx, "https://a.example/")
	require.NoError(t, err)
	assert.Equal(t, 200, ls.Status)

	all, err := f.svc.ListLatest(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHistory_PagesCurrentMonthAndSummarizesPast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const url = "https://h.example"

	f.record(t, url, time.Date(2024, 1, 10, 4, 0, 0, 0, time.UTC), true, 100)
	f.record(t, url, time.Date(2024, 2, 10, 4, 0, 0, 0, time.UTC), false, 0)
	f.record(t, url, time.Date(2024, 2, 11, 4, 0, 0, 0, time.UTC), true, 50)
	// 2024-02-29 17:00 UTC is already March 1st in Shanghai.
	f.record(t, url, time.Date(2024, 2, 29, 17, 0, 0, 0, time.UTC), true, 1)
	f.record(t, url, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true, 2)
	f.record(t, url, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false, 3)

	page1, err := f.svc.History(ctx, url, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", page1.CurrentMonth)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, HasMore: true}, page1.Pagination)
	require.Len(t, page1.Data, 2)
	assert.EqualValues(t, 3, page1.Data[0].ResponseTime, "newest first")

	want := []MonthSummary{
		{Month: "2024-02", Counters: models.Counters{TotalChecks: 2, SuccessfulChecks: 1, FailedChecks: 1, TotalResponseTime: 50}, AvgResponseTime: 25, UptimePercentage: 50},
		{Month: "2024-01", Counters: models.Counters{TotalChecks: 1, SuccessfulChecks: 1, TotalResponseTime: 100}, AvgResponseTime: 100, UptimePercentage: 100},
	}
	if diff := cmp.Diff(want, page1.MonthlySummary); diff != "" {
		t.Errorf("MonthlySummary mismatch (-want +got):\n%s", diff)
	}

	page2, err := f.svc.History(ctx, url, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Data, 1)
	assert.False(t, page2.Pagination.HasMore)
	assert.Empty(t, page2.MonthlySummary)

	_, err = f.svc.History(ctx, "", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecent_HidesBucketsOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.record(t, "https://old.example", now.AddDate(0, 0, -40), true, 1)
	f.record(t, "https://r.example", now.AddDate(0, 0, -2), true, 1)
	f.record(t, "https://r.example", now, false, 1)

	all, err := f.svc.RecentAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "https://r.example", all[0].URL)
	assert.Len(t, all[0].Buckets, 2)

	one, err := f.svc.Recent(ctx, "https://old.example")
	require.NoError(t, err)
	assert.Equal(t, "https://old.example", one.URL)
	assert.Empty(t, one.Buckets)
}

func TestCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const url = "https://cm.example"

	f.record(t, url, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), true, 5)
	f.record(t, url, time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC), true, 10)
	f.record(t, url, time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC), false, 20)
	f.record(t, url, time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC), true, 30)

	got, err := f.svc.CurrentMonth(ctx, url)
	require.NoError(t, err)
	want := &CurrentMonthStats{
		URL:   url,
		Month: "2024-03",
		Stats: []models.DailyBucket{
			{Date: "2024-03-02", Counters: models.Counters{TotalChecks: 2, SuccessfulChecks: 1, FailedChecks: 1, TotalResponseTime: 30}},
			{Date: "2024-03-03", Counters: models.Counters{TotalChecks: 1, SuccessfulChecks: 1, TotalResponseTime: 30}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CurrentMonth() mismatch (-want +got):\n%s", diff)
	}
}

func TestMonthlyUptime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 2024-01-31 20:00 UTC is 2024-02-01 in Shanghai.
	f.record(t, "https://u.example", time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC), true, 1)
	f.record(t, "https://u.example", time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC), false, 1)
	f.record(t, "https://u.example", time.Date(2024, 2, 2, 3, 0, 0, 0, time.UTC), true, 1)
	f.record(t, "https://v.example", time.Date(2024, 2, 2, 3, 0, 0, 0, time.UTC), true, 1)

	got, err := f.svc.MonthlyUptime(ctx, "2024-02", "")
	require.NoError(t, err)
	want := &MonthlyUptime{
		Month: "2024-02",
		Data: map[string][]models.DayUptime{
			"https://u.example": {{Date: "2024-02-01", Uptime: 0.5, Count: 2}, {Date: "2024-02-02", Uptime: 1, Count: 1}},
			"https://v.example": {{Date: "2024-02-02", Uptime: 1, Count: 1}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MonthlyUptime() mismatch (-want +got):\n%s", diff)
	}

	// In UTC the first check falls in January.
	utc, err := f.svc.MonthlyUptime(ctx, "2024-01", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", utc.Month)
	assert.Equal(t, []models.DayUptime{{Date: "2024-01-31", Uptime: 1, Count: 1}}, utc.Data["https://u.example"])

	// The current month (March) is empty, so the latest month with data is used.
	fallback, err := f.svc.MonthlyUptime(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", fallback.Month)
	assert.Len(t, fallback.Data, 2)

	_, err = f.svc.MonthlyUptime(ctx, "2024/02", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.MonthlyUptime(ctx, "2024-13", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.MonthlyUptime(ctx, "", "Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.record(t, "https://d.example", now.Add(time.Duration(i)*time.Minute), i%2 == 0, int64(i))
	}
	f.record(t, "https://e.example", now, true, 0)

	rows, err := f.svc.Data(ctx, DataFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	down := false
	rows, err = f.svc.Data(ctx, DataFilter{URL: "https://d.example/", Available: &down, Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].ResponseTime)
}
