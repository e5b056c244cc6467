package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkmon/internal/checker"
	"linkmon/internal/models"
)

type fakeSource struct {
	candidates []models.Candidate
	err        error
}

func (f *fakeSource) FetchCandidates(context.Context) ([]models.Candidate, error) {
	return f.candidates, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	fail    map[string]bool
	records []models.CheckOutcome
	sweeps  int
}

func (f *fakeRecorder) Record(_ context.Context, o models.CheckOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[o.URL] {
		return errors.New("latest status write failed")
	}
	f.records = append(f.records, o)
	return nil
}

func (f *fakeRecorder) Sweep(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0, nil
}

func (f *fakeRecorder) byURL() map[string]models.CheckOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := map[string]models.CheckOutcome{}
	for _, o := range f.records {
		m[o.URL] = o
	}
	return m
}

func statusServer(t *testing.T, code int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newProber() *checker.Prober {
	return checker.NewProber(checker.ProbeConfig{Timeout: 2 * time.Second})
}

func TestRun_CapDedupeAndSummary(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	down := statusServer(t, http.StatusServiceUnavailable)
	broken := statusServer(t, http.StatusOK)
	deferred := statusServer(t, http.StatusOK)

	src := &fakeSource{candidates: []models.Candidate{
		{URL: up + "/", Title: "Up", Avatar: "https://a.example/up.png"},
		{URL: up, Title: "Duplicate"},
		{URL: down, Title: "Down"},
		{URL: broken, Title: "Broken"},
		{URL: deferred, Title: "Deferred"},
	}}
	rec := &fakeRecorder{fail: map[string]bool{broken: true}}
	r := NewRunner(src, newProber(), rec, Options{BatchSize: 2, MaxChecks: 3, RetentionSweep: true})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	want := &RunSummary{
		Processed: 2,
		Data: []Result{
			{URL: up, Status: 200, Available: true},
			{URL: down, Status: 503, Available: false},
		},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}

	got := rec.byURL()
	assert.Equal(t, "Up", got[up].Title)
	assert.Equal(t, "https://a.example/up.png", got[up].Avatar)
	assert.NotContains(t, got, deferred)
	assert.Equal(t, 1, rec.sweeps)
}

func TestRun_IngestionErrorSurfaces(t *testing.T) {
	r := NewRunner(&fakeSource{err: errors.New("HTTP 500")}, newProber(), &fakeRecorder{}, Options{})
	summary, err := r.Run(context.Background())
	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "HTTP 500")
	assert.Error(t, r.Job(context.Background()))
}

func TestRun_EmptySourceReturnsEmptyData(t *testing.T) {
	r := NewRunner(&fakeSource{}, newProber(), &fakeRecorder{}, Options{})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.NotNil(t, summary.Data)
}

func TestCheckAndCheckMany(t *testing.T) {
	ok := statusServer(t, http.StatusOK)
	bad := statusServer(t, http.StatusNotFound)
	rec := &fakeRecorder{fail: map[string]bool{bad: true}}
	r := NewRunner(&fakeSource{}, newProber(), rec, Options{})

	o, err := r.Check(context.Background(), ok+"/")
	require.NoError(t, err)
	assert.Equal(t, ok, o.URL)
	assert.True(t, o.Available)

	_, err = r.Check(context.Background(), bad)
	assert.Error(t, err)

	many := r.CheckMany(context.Background(), []string{bad, ok})
	require.Len(t, many, 1)
	assert.Equal(t, ok, many[0].URL)
}
