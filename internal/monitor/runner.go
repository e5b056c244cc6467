// Package monitor wires ingestion, probing and recording into check runs.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"linkmon/internal/models"
	"linkmon/internal/urlutil"
)

// Source supplies the candidates for a scheduled run.
type Source interface {
	FetchCandidates(ctx context.Context) ([]models.Candidate, error)
}

// Prober checks URLs.
type Prober interface {
	Probe(ctx context.Context, url string) models.CheckOutcome
	BatchProbe(ctx context.Context, urls []string) []models.CheckOutcome
	ChunkedProbe(ctx context.Context, urls []string, size int, handle func(int, models.CheckOutcome)) []models.CheckOutcome
}

// Recorder persists outcomes.
type Recorder interface {
	Record(ctx context.Context, outcome models.CheckOutcome) error
	Sweep(ctx context.Context) (int64, error)
}

// Options tunes a Runner.
type Options struct {
	BatchSize      int
	MaxChecks      int // 0 = unlimited
	RetentionSweep bool
}

// Result is the compact per-URL line of a run summary.
type Result struct {
	URL       string `json:"url"`
	Status    int    `json:"status"`
	Available bool   `json:"available"`
}

// RunSummary reports what a scheduled run recorded.
type RunSummary struct {
	Processed int      `json:"processed"`
	Data      []Result `json:"data"`
}

// Runner executes ad hoc and scheduled checks.
type Runner struct {
	source   Source
	prober   Prober
	recorder Recorder
	opts     Options
}

// NewRunner creates a Runner.
func NewRunner(source Source, prober Prober, recorder Recorder, opts Options) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	return &Runner{source: source, prober: prober, recorder: recorder, opts: opts}
}

// Check probes and records one URL. The error is the recorder's.
func (r *Runner) Check(ctx context.Context, url string) (models.CheckOutcome, error) {
	outcome := r.prober.Probe(ctx, url)
	if err := r.recorder.Record(ctx, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// CheckMany probes every URL at once and records each outcome.
// Outcomes whose recording failed are dropped from the result.
func (r *Runner) CheckMany(ctx context.Context, urls []string) []models.CheckOutcome {
	outcomes := r.prober.BatchProbe(ctx, urls)
	kept := outcomes[:0]
	for _, o := range outcomes {
		if err := r.recorder.Record(ctx, o); err != nil {
			logrus.WithError(err).WithField("url", o.URL).Error("dropping outcome")
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// Run performs one scheduled ingestion-and-check run.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	started := time.Now()
	candidates, err := r.source.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	candidates = dedupe(candidates)

	if limit := r.opts.MaxChecks; limit > 0 && len(candidates) > limit {
		logrus.WithFields(logrus.Fields{"candidates": len(candidates), "limit": limit}).
			Warn("candidate count exceeds per-run limit, deferring the rest")
		candidates = candidates[:limit]
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}

	recorded := make([]bool, len(candidates))
	outcomes := r.prober.ChunkedProbe(ctx, urls, r.opts.BatchSize, func(i int, o models.CheckOutcome) {
		c := candidates[i]
		o.Title, o.Avatar, o.Screenshot = c.Title, c.Avatar, c.Screenshot
		if err := r.recorder.Record(ctx, o); err != nil {
			logrus.WithError(err).WithField("url", o.URL).Error("dropping outcome")
			return
		}
		recorded[i] = true
	})

	summary := &RunSummary{Data: []Result{}}
	var up int
	for i, o := range outcomes {
		if !recorded[i] {
			continue
		}
		summary.Data = append(summary.Data, Result{URL: o.URL, Status: o.Status, Available: o.Available})
		if o.Available {
			up++
		}
	}
	summary.Processed = len(summary.Data)

	if r.opts.RetentionSweep {
		if _, err := r.recorder.Sweep(ctx); err != nil {
			logrus.WithError(err).Warn("retention sweep failed")
		}
	}

	logrus.WithFields(logrus.Fields{
		"processed": humanize.Comma(int64(summary.Processed)),
		"up":        humanize.Comma(int64(up)),
		"started":   humanize.Time(started),
	}).Infof("check run finished in %s", time.Since(started).Round(time.Millisecond))
	return summary, nil
}

// Job adapts Run to a scheduler callback.
func (r *Runner) Job(ctx context.Context) error {
	_, err := r.Run(ctx)
	return err
}

func dedupe(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		key := urlutil.Normalize(c.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
