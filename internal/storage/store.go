package storage

import (
	"context"
	"errors"
	"time"

	"linkmon/internal/models"
)

//go:generate mockgen -destination=mock_store.go -package=storage linkmon/internal/storage Storer

var (
	// ErrDuplicateKey is returned when attempting to create a duplicate resource
	ErrDuplicateKey = errors.New("duplicate")
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("not found")
)

// ListHistoryParams filters and pages history rows, newest first.
// Zero values mean "no constraint"; Available is a tri-state filter.
type ListHistoryParams struct {
	URL       string
	Since     time.Time // inclusive
	Until     time.Time // exclusive
	Available *bool
	Offset    int
	Limit     int
}

// Storer defines the storage operations behind every derived view.
type Storer interface {
	UpsertTarget(ctx context.Context, target *models.Target) error
	ListTargets(ctx context.Context) ([]models.Target, error)

	UpsertLatestStatus(ctx context.Context, outcome *models.CheckOutcome) error
	GetLatestStatus(ctx context.Context, url string) (*models.LatestStatus, error)
	ListLatestStatuses(ctx context.Context) ([]models.LatestStatus, error)

	InsertHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, params ListHistoryParams) ([]models.HistoryEntry, error)
	CountHistory(ctx context.Context, params ListHistoryParams) (int, error)
	LatestCheckedAt(ctx context.Context) (time.Time, error)

	IncrementMonthlyStat(ctx context.Context, url, month string, available bool, responseTime int64) error
	GetMonthlyStat(ctx context.Context, url, month string) (*models.MonthlyStat, error)
	ListMonthlyStats(ctx context.Context, url string) ([]models.MonthlyStat, error)

	IncrementDailyStat(ctx context.Context, url, date string, available bool, responseTime int64) error
	EvictDailyStats(ctx context.Context, url, before string) error
	ListDailyStats(ctx context.Context, url string) ([]models.WindowedDailyStat, error)

	DeleteCheckedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
