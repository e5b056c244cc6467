// Package recorder folds probe outcomes into the stored views: latest status,
// history, monthly rollups and the trailing daily window.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"linkmon/internal/civil"
	"linkmon/internal/models"
	"linkmon/internal/storage"
	"linkmon/internal/urlutil"
)

// DefaultWindowDays is the length of the trailing daily window.
const DefaultWindowDays = 30

// Recorder persists check outcomes.
type Recorder struct {
	store      storage.Storer
	clock      *civil.Clock
	windowDays int
	locks      *KeyLock
}

// New creates a Recorder. windowDays <= 0 selects DefaultWindowDays.
func New(store storage.Storer, clock *civil.Clock, windowDays int) *Recorder {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Recorder{
		store:      store,
		clock:      clock,
		windowDays: windowDays,
		locks:      NewKeyLock(),
	}
}

// Record writes one outcome. Only the latest-status write can fail the call;
// history and statistics failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, outcome models.CheckOutcome) error {
	o := outcome
	o.URL = urlutil.Normalize(o.URL)
	if o.CheckedAt.IsZero() {
		o.CheckedAt = r.clock.Now()
	}
	if o.ResponseTime < 0 {
		o.ResponseTime = 0
	}

	r.locks.Lock(o.URL)
	defer r.locks.Unlock(o.URL)

	if err := r.store.UpsertLatestStatus(ctx, &o); err != nil {
		return fmt.Errorf("failed to record latest status for %s: %w", o.URL, err)
	}

	log := logrus.WithField("url", o.URL)

	if o.Title != "" || o.Avatar != "" || o.Screenshot != "" {
		target := &models.Target{URL: o.URL, Title: o.Title, Avatar: o.Avatar, Screenshot: o.Screenshot, UpdatedAt: o.CheckedAt}
		if err := r.store.UpsertTarget(ctx, target); err != nil {
			log.WithError(err).WithField("step", "target").Warn("secondary write failed")
		}
	}

	entry := &models.HistoryEntry{
		ID:           storage.NewID(),
		URL:          o.URL,
		Status:       o.Status,
		ResponseTime: o.ResponseTime,
		Available:    o.Available,
		Error:        o.Error,
		CheckedAt:    o.CheckedAt,
	}
	if err := r.store.InsertHistory(ctx, entry); err != nil {
		log.WithError(err).WithField("step", "history").Warn("secondary write failed")
	}

	month := r.clock.Month(o.CheckedAt)
	if err := r.store.IncrementMonthlyStat(ctx, o.URL, month, o.Available, o.ResponseTime); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"step": "monthly", "month": month}).Warn("secondary write failed")
	}

	if err := r.updateWindow(ctx, o); err != nil {
		log.WithError(err).WithField("step", "window").Warn("secondary write failed")
	}
	return nil
}

func (r *Recorder) updateWindow(ctx context.Context, o models.CheckOutcome) error {
	date := r.clock.Date(o.CheckedAt)
	if err := r.store.IncrementDailyStat(ctx, o.URL, date, o.Available, o.ResponseTime); err != nil {
		return err
	}
	cutoff, err := civil.WindowStart(date, r.windowDays)
	if err != nil {
		return err
	}
	return r.store.EvictDailyStats(ctx, o.URL, cutoff)
}

// Sweep deletes history and latest-status rows checked before the start of the
// current civil month. Monthly rollups are kept.
func (r *Recorder) Sweep(ctx context.Context) (int64, error) {
	cutoff := r.clock.MonthStart(r.clock.Now())
	n, err := r.store.DeleteCheckedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep failed: %w", err)
	}
	logrus.WithFields(logrus.Fields{"cutoff": cutoff.Format(time.RFC3339), "deleted": n}).Info("retention sweep complete")
	return n, nil
}
