package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"linkmon/internal/civil"
	"linkmon/internal/models"
	"linkmon/internal/storage"
	"linkmon/internal/storage/sqlite"
)

func newSQLite(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	s, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestRecord_MonthBoundarySplit(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rec := New(store, civil.MustNew("UTC"), 30)
	const url = "https://blog.example"

	checks := []struct {
		at        time.Time
		available bool
		rt        int64
	}{
		{day(2023, 10, 30), true, 100},
		{day(2023, 10, 31), false, 0},
		{day(2023, 11, 1), true, 200},
		{day(2023, 11, 1), true, 150},
		{day(2023, 11, 2), false, 0},
	}
	for _, c := range checks {
		status := 200
		if !c.available {
			status = 500
		}
		require.NoError(t, rec.Record(ctx, models.CheckOutcome{
			URL: url + "/", Status: status, Available: c.available, ResponseTime: c.rt, CheckedAt: c.at,
		}))
	}

	oct, err := store.GetMonthlyStat(ctx, url, "2023-10")
	require.NoError(t, err)
	assert.EqualValues(t, 2, oct.TotalChecks)
	assert.EqualValues(t, 1, oct.SuccessfulChecks)
	assert.EqualValues(t, 1, oct.FailedChecks)
	assert.InDelta(t, 50.0, oct.AvgResponseTime(), 0.001)
	assert.InDelta(t, 50.0, oct.UptimePercentage(), 0.001)

	nov, err := store.GetMonthlyStat(ctx, url, "2023-11")
	require.NoError(t, err)
	assert.EqualValues(t, 3, nov.TotalChecks)
	assert.EqualValues(t, 2, nov.SuccessfulChecks)
	assert.EqualValues(t, 1, nov.FailedChecks)
	assert.InDelta(t, 116.67, nov.AvgResponseTime(), 0.01)
	assert.InDelta(t, 66.67, nov.UptimePercentage(), 0.01)

	for _, m := range []*models.MonthlyStat{oct, nov} {
		assert.Equal(t, m.TotalChecks, m.SuccessfulChecks+m.FailedChecks)
	}
}

func TestRecord_HistoryAndLatest(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rec := New(store, civil.MustNew(civil.DefaultZone), 30)
	const url = "https://n.example"
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	const n = 6
	for i := 0; i < n; i++ {
		require.NoError(t, rec.Record(ctx, models.CheckOutcome{
			URL: url, Status: 200 + i, Available: true, ResponseTime: int64(i), CheckedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := store.CountHistory(ctx, storage.ListHistoryParams{URL: url})
	require.NoError(t, err)
	assert.Equal(t, n, count)

	all, err := store.ListLatestStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 200+n-1, all[0].Status)
	assert.EqualValues(t, n-1, all[0].ResponseTime)
}

func TestRecord_CarriesTargetMetadata(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rec := New(store, civil.MustNew("UTC"), 30)

	require.NoError(t, rec.Record(ctx, models.CheckOutcome{
		URL: "https://m.example", Status: 200, Available: true, CheckedAt: day(2024, 1, 1), Title: "Friend", Avatar: "https://m.example/a.png",
	}))

	ls, err := store.GetLatestStatus(ctx, "https://m.example")
	require.NoError(t, err)
	assert.Equal(t, "Friend", ls.Title)
	assert.Equal(t, "https://m.example/a.png", ls.Avatar)
}

func TestRecord_TrailingWindowEvicts(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rec := New(store, civil.MustNew("UTC"), 30)
	const url = "https://w.example"

	start := day(2024, 1, 1)
	for i := 0; i < 45; i++ {
		require.NoError(t, rec.Record(ctx, models.CheckOutcome{URL: url, Status: 200, Available: true, CheckedAt: start.AddDate(0, 0, i)}))
	}

	series, err := store.ListDailyStats(ctx, url)
	require.NoError(t, err)
	require.Len(t, series, 1)
	buckets := series[0].Buckets
	assert.Len(t, buckets, 31)

	latest := start.AddDate(0, 0, 44)
	oldest := latest.AddDate(0, 0, -30).Format(civil.DateLayout)
	assert.Equal(t, oldest, buckets[0].Date)
	for i := 1; i < len(buckets); i++ {
		assert.Less(t, buckets[i-1].Date, buckets[i].Date, "strictly ascending")
	}
}

func TestRecord_SameURLConcurrent(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t)
	rec := New(store, civil.MustNew("UTC"), 30)
	at := day(2024, 2, 2)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rec.Record(ctx, models.CheckOutcome{URL: "https://c.example", Status: 200, Available: i%2 == 0, ResponseTime: 10, CheckedAt: at}))
		}()
	}
	wg.Wait()

	series, err := store.ListDailyStats(ctx, "https://c.example")
	require.NoError(t, err)
	require.Len(t, series, 1)
	b := series[0].Buckets[0]
	assert.EqualValues(t, 20, b.TotalChecks)
	assert.EqualValues(t, 10, b.SuccessfulChecks)
	assert.EqualValues(t, 200, b.TotalResponseTime)
	assert.Equal(t, 0, rec.locks.Len())
}

func TestRecord_SecondaryFailuresSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockStorer(ctrl)
	rec := New(store, civil.MustNew("UTC"), 30)
	ctx := context.Background()
	boom := errors.New("boom")
	at := day(2024, 4, 15)

	gomock.InOrder(
		store.EXPECT().UpsertLatestStatus(ctx, gomock.Any()).Return(nil),
		store.EXPECT().InsertHistory(ctx, gomock.Any()).Return(boom),
		store.EXPECT().IncrementMonthlyStat(ctx, "https://s.example", "2024-04", false, int64(0)).Return(boom),
		store.EXPECT().IncrementDailyStat(ctx, "https://s.example", "2024-04-15", false, int64(0)).Return(nil),
		store.EXPECT().EvictDailyStats(ctx, "https://s.example", "2024-03-16").Return(boom),
	)

	err := rec.Record(ctx, models.CheckOutcome{URL: "https://s.example/", CheckedAt: at, Error: "dial tcp: refused"})
	assert.NoError(t, err)
}

func TestRecord_PrimaryFailureReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockStorer(ctrl)
	rec := New(store, civil.MustNew("UTC"), 30)
	ctx := context.Background()

	store.EXPECT().UpsertLatestStatus(ctx, gomock.Any()).Return(fmt.Errorf("db down"))

	err := rec.Record(ctx, models.CheckOutcome{URL: "https://p.example", Status: 200, Available: true, CheckedAt: day(2024, 1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSweep_UsesCivilMonthStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockStorer(ctrl)
	clock := civil.MustNew("Asia/Shanghai").WithNow(func() time.Time {
		return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	})
	rec := New(store, clock, 0)

	want := time.Date(2024, 5, 31, 16, 0, 0, 0, time.UTC)
	store.EXPECT().DeleteCheckedBefore(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cutoff time.Time) (int64, error) {
		assert.True(t, cutoff.Equal(want), "cutoff %s", cutoff)
		return 3, nil
	})

	n, err := rec.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, DefaultWindowDays, rec.windowDays)
}
