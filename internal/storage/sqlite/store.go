package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"linkmon/internal/models"
	"linkmon/internal/storage"
)

// SQLiteStore implements the storage.Storer interface for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore and establishes a connection to the database file.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", withPragmas(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// A single writer keeps ":memory:" databases shared and serializes increments.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// withPragmas appends the connection pragmas, keeping any query the DSN already carries.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + pragmas
	}
	return dsn + "?" + pragmas
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS targets (
	url         TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	avatar      TEXT NOT NULL DEFAULT '',
	screenshot  TEXT NOT NULL DEFAULT '',
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS latest_status (
	url           TEXT PRIMARY KEY,
	status        INTEGER NOT NULL,
	response_time INTEGER NOT NULL,
	available     INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	checked_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS check_history (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	status        INTEGER NOT NULL,
	response_time INTEGER NOT NULL,
	available     INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	checked_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_history_url_checked_at ON check_history (url, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history (checked_at);

CREATE TABLE IF NOT EXISTS monthly_stats (
	url                 TEXT NOT NULL,
	month               TEXT NOT NULL,
	total_checks        INTEGER NOT NULL DEFAULT 0,
	successful_checks   INTEGER NOT NULL DEFAULT 0,
	failed_checks       INTEGER NOT NULL DEFAULT 0,
	total_response_time INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (url, month)
);

CREATE TABLE IF NOT EXISTS daily_stats (
	url                 TEXT NOT NULL,
	date                TEXT NOT NULL,
	total_checks        INTEGER NOT NULL DEFAULT 0,
	successful_checks   INTEGER NOT NULL DEFAULT 0,
	failed_checks       INTEGER NOT NULL DEFAULT 0,
	total_response_time INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (url, date)
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// UpsertTarget creates or refreshes target metadata. Empty fields never
// overwrite values already stored.
func (s *SQLiteStore) UpsertTarget(ctx context.Context, target *models.Target) error {
	query := `
INSERT INTO targets (url, title, avatar, screenshot, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	title      = COALESCE(NULLIF(excluded.title, ''), targets.title),
	avatar     = COALESCE(NULLIF(excluded.avatar, ''), targets.avatar),
	screenshot = COALESCE(NULLIF(excluded.screenshot, ''), targets.screenshot),
	updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, target.URL, target.Title, target.Avatar, target.Screenshot, target.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert target: %w", err)
	}
	return nil
}

// ListTargets returns every known target ordered by URL.
func (s *SQLiteStore) ListTargets(ctx context.Context) ([]models.Target, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, title, avatar, screenshot, updated_at FROM targets ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()
	var targets []models.Target
	for rows.Next() {
		var t models.Target
		var updatedAt int64
		if err := rows.Scan(&t.URL, &t.Title, &t.Avatar, &t.Screenshot, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// UpsertLatestStatus overwrites the current status of a URL.
func (s *SQLiteStore) UpsertLatestStatus(ctx context.Context, o *models.CheckOutcome) error {
	query := `
INSERT INTO latest_status (url, status, response_time, available, error, checked_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	status        = excluded.status,
	response_time = excluded.response_time,
	available     = excluded.available,
	error         = excluded.error,
	checked_at    = excluded.checked_at`
	_, err := s.db.ExecContext(ctx, query, o.URL, o.Status, o.ResponseTime, o.Available, o.Error, o.CheckedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert latest status: %w", err)
	}
	return nil
}

const latestSelect = `
SELECT l.url, l.status, l.response_time, l.available, l.error, l.checked_at,
       COALESCE(t.title, ''), COALESCE(t.avatar, ''), COALESCE(t.screenshot, '')
FROM latest_status l LEFT JOIN targets t ON t.url = l.url`

func scanLatest(sc interface{ Scan(...any) error }) (*models.LatestStatus, error) {
	var ls models.LatestStatus
	var checkedAt int64
	if err := sc.Scan(&ls.URL, &ls.Status, &ls.ResponseTime, &ls.Available, &ls.Error, &checkedAt, &ls.Title, &ls.Avatar, &ls.Screenshot); err != nil {
		return nil, err
	}
	ls.CheckedAt = time.UnixMilli(checkedAt).UTC()
	return &ls, nil
}

// GetLatestStatus returns the current status of a URL.
func (s *SQLiteStore) GetLatestStatus(ctx context.Context, url string) (*models.LatestStatus, error) {
	ls, err := scanLatest(s.db.QueryRowContext(ctx, latestSelect+` WHERE l.url = ?`, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest status: %w", err)
	}
	return ls, nil
}

// ListLatestStatuses returns the current status of every URL.
func (s *SQLiteStore) ListLatestStatuses(ctx context.Context) ([]models.LatestStatus, error) {
	rows, err := s.db.QueryContext(ctx, latestSelect+` ORDER BY l.url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest statuses: %w", err)
	}
	defer rows.Close()
	var out []models.LatestStatus
	for rows.Next() {
		ls, err := scanLatest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest status row: %w", err)
		}
		out = append(out, *ls)
	}
	return out, rows.Err()
}

// InsertHistory appends one history row. Rows are never updated.
func (s *SQLiteStore) InsertHistory(ctx context.Context, e *models.HistoryEntry) error {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	query := `INSERT INTO check_history (id, url, status, response_time, available, error, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, e.ID, e.URL, e.Status, e.ResponseTime, e.Available, e.Error, e.CheckedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}
	return nil
}

func historyWhere(params storage.ListHistoryParams) (string, []any) {
	var args []any
	qb := strings.Builder{}
	qb.WriteString(" WHERE 1=1")
	if params.URL != "" {
		args = append(args, params.URL)
		qb.WriteString(" AND url = ?")
	}
	if !params.Since.IsZero() {
		args = append(args, params.Since.UnixMilli())
		qb.WriteString(" AND checked_at >= ?")
	}
	if !params.Until.IsZero() {
		args = append(args, params.Until.UnixMilli())
		qb.WriteString(" AND checked_at < ?")
	}
	if params.Available != nil {
		args = append(args, *params.Available)
		qb.WriteString(" AND available = ?")
	}
	return qb.String(), args
}

// ListHistory returns history rows newest first.
func (s *SQLiteStore) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	where, args := historyWhere(params)
	qb := strings.Builder{}
	qb.WriteString("SELECT id, url, status, response_time, available, error, checked_at FROM check_history")
	qb.WriteString(where)
	qb.WriteString(" ORDER BY checked_at DESC, id DESC")
	if params.Limit > 0 {
		qb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()
	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var checkedAt int64
		if err := rows.Scan(&e.ID, &e.URL, &e.Status, &e.ResponseTime, &e.Available, &e.Error, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CheckedAt = time.UnixMilli(checkedAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountHistory counts the rows ListHistory would return without paging.
func (s *SQLiteStore) CountHistory(ctx context.Context, params storage.ListHistoryParams) (int, error) {
	where, args := historyWhere(params)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM check_history"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// LatestCheckedAt returns the newest history timestamp, or ErrNotFound when empty.
func (s *SQLiteStore) LatestCheckedAt(ctx context.Context) (time.Time, error) {
	var ms sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(checked_at) FROM check_history`).Scan(&ms); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest check: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, storage.ErrNotFound
	}
	return time.UnixMilli(ms.Int64).UTC(), nil
}

func split(available bool) (int64, int64) {
	if available {
		return 1, 0
	}
	return 0, 1
}

// IncrementMonthlyStat atomically folds one check into the (url, month) row.
func (s *SQLiteStore) IncrementMonthlyStat(ctx context.Context, url, month string, available bool, responseTime int64) error {
	ok, failed := split(available)
	query := `
INSERT INTO monthly_stats (url, month, total_checks, successful_checks, failed_checks, total_response_time)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT(url, month) DO UPDATE SET
	total_checks        = monthly_stats.total_checks + 1,
	successful_checks   = monthly_stats.successful_checks + excluded.successful_checks,
	failed_checks       = monthly_stats.failed_checks + excluded.failed_checks,
	total_response_time = monthly_stats.total_response_time + excluded.total_response_time`
	if _, err := s.db.ExecContext(ctx, query, url, month, ok, failed, responseTime); err != nil {
		return fmt.Errorf("failed to increment monthly stat: %w", err)
	}
	return nil
}

// GetMonthlyStat returns one monthly rollup.
func (s *SQLiteStore) GetMonthlyStat(ctx context.Context, url, month string) (*models.MonthlyStat, error) {
	query := `SELECT url, month, total_checks, successful_checks, failed_checks, total_response_time FROM monthly_stats WHERE url = ? AND month = ?`
	var m models.MonthlyStat
	err := s.db.QueryRowContext(ctx, query, url, month).Scan(&m.URL, &m.Month, &m.TotalChecks, &m.SuccessfulChecks, &m.FailedChecks, &m.TotalResponseTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly stat: %w", err)
	}
	return &m, nil
}

// ListMonthlyStats returns every month of a URL, newest month first.
func (s *SQLiteStore) ListMonthlyStats(ctx context.Context, url string) ([]models.MonthlyStat, error) {
	query := `SELECT url, month, total_checks, successful_checks, failed_checks, total_response_time FROM monthly_stats WHERE url = ? ORDER BY month DESC`
	rows, err := s.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly stats: %w", err)
	}
	defer rows.Close()
	var out []models.MonthlyStat
	for rows.Next() {
		var m models.MonthlyStat
		if err := rows.Scan(&m.URL, &m.Month, &m.TotalChecks, &m.SuccessfulChecks, &m.FailedChecks, &m.TotalResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stat row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// IncrementDailyStat atomically folds one check into the (url, date) bucket.
func (s *SQLiteStore) IncrementDailyStat(ctx context.Context, url, date string, available bool, responseTime int64) error {
	ok, failed := split(available)
	query := `
INSERT INTO daily_stats (url, date, total_checks, successful_checks, failed_checks, total_response_time)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT(url, date) DO UPDATE SET
	total_checks        = daily_stats.total_checks + 1,
	successful_checks   = daily_stats.successful_checks + excluded.successful_checks,
	failed_checks       = daily_stats.failed_checks + excluded.failed_checks,
	total_response_time = daily_stats.total_response_time + excluded.total_response_time`
	if _, err := s.db.ExecContext(ctx, query, url, date, ok, failed, responseTime); err != nil {
		return fmt.Errorf("failed to increment daily stat: %w", err)
	}
	return nil
}

// EvictDailyStats drops the URL's buckets dated strictly before the given date key.
func (s *SQLiteStore) EvictDailyStats(ctx context.Context, url, before string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM daily_stats WHERE url = ? AND date < ?`, url, before); err != nil {
		return fmt.Errorf("failed to evict daily stats: %w", err)
	}
	return nil
}

// ListDailyStats assembles the windowed series of one URL, or of every URL when url is empty.
func (s *SQLiteStore) ListDailyStats(ctx context.Context, url string) ([]models.WindowedDailyStat, error) {
	var args []any
	query := `SELECT url, date, total_checks, successful_checks, failed_checks, total_response_time FROM daily_stats`
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY url, date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	defer rows.Close()
	var out []models.WindowedDailyStat
	for rows.Next() {
		var u string
		var b models.DailyBucket
		if err := rows.Scan(&u, &b.Date, &b.TotalChecks, &b.SuccessfulChecks, &b.FailedChecks, &b.TotalResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat row: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].URL != u {
			out = append(out, models.WindowedDailyStat{URL: u})
		}
		last := &out[len(out)-1]
		last.Buckets = append(last.Buckets, b)
	}
	return out, rows.Err()
}

// DeleteCheckedBefore removes history and latest-status rows checked before cutoff.
func (s *SQLiteStore) DeleteCheckedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"check_history", "latest_status"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE checked_at < ?", cutoff.UnixMilli())
		if err != nil {
			return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}
