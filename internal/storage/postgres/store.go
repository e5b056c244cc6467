package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkmon/internal/models"
	"linkmon/internal/storage"
)

// PostgresStore implements the storage.Storer interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New creates a new PostgresStore and establishes a connection to the database.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// migrate ensures the database schema is created.
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS targets (
		url         TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		avatar      TEXT NOT NULL DEFAULT '',
		screenshot  TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS latest_status (
		url           TEXT PRIMARY KEY,
		status        INTEGER NOT NULL,
		response_time BIGINT NOT NULL,
		available     BOOLEAN NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		checked_at    TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS check_history (
		id            TEXT PRIMARY KEY,
		url           TEXT NOT NULL,
		status        INTEGER NOT NULL,
		response_time BIGINT NOT NULL,
		available     BOOLEAN NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		checked_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_check_history_url_checked_at ON check_history (url, checked_at DESC);
	CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history (checked_at);

	CREATE TABLE IF NOT EXISTS monthly_stats (
		url                 TEXT NOT NULL,
		month               TEXT NOT NULL,
		total_checks        BIGINT NOT NULL DEFAULT 0,
		successful_checks   BIGINT NOT NULL DEFAULT 0,
		failed_checks       BIGINT NOT NULL DEFAULT 0,
		total_response_time BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (url, month)
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		url                 TEXT NOT NULL,
		date                TEXT NOT NULL,
		total_checks        BIGINT NOT NULL DEFAULT 0,
		successful_checks   BIGINT NOT NULL DEFAULT 0,
		failed_checks       BIGINT NOT NULL DEFAULT 0,
		total_response_time BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (url, date)
	);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// UpsertTarget implements the Storer interface.
func (s *PostgresStore) UpsertTarget(ctx context.Context, target *models.Target) error {
	query := `
	INSERT INTO targets (url, title, avatar, screenshot, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (url) DO UPDATE SET
		title      = COALESCE(NULLIF(EXCLUDED.title, ''), targets.title),
		avatar     = COALESCE(NULLIF(EXCLUDED.avatar, ''), targets.avatar),
		screenshot = COALESCE(NULLIF(EXCLUDED.screenshot, ''), targets.screenshot),
		updated_at = EXCLUDED.updated_at`
	_, err := s.db.Exec(ctx, query, target.URL, target.Title, target.Avatar, target.Screenshot, target.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert target: %w", err)
	}
	return nil
}

// ListTargets implements the Storer interface.
func (s *PostgresStore) ListTargets(ctx context.Context) ([]models.Target, error) {
	rows, err := s.db.Query(ctx, `SELECT url, title, avatar, screenshot, updated_at FROM targets ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []models.Target
	for rows.Next() {
		var t models.Target
		if err := rows.Scan(&t.URL, &t.Title, &t.Avatar, &t.Screenshot, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// UpsertLatestStatus implements the Storer interface.
func (s *PostgresStore) UpsertLatestStatus(ctx context.Context, o *models.CheckOutcome) error {
	query := `
	INSERT INTO latest_status (url, status, response_time, available, error, checked_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (url) DO UPDATE SET
		status        = EXCLUDED.status,
		response_time = EXCLUDED.response_time,
		available     = EXCLUDED.available,
		error         = EXCLUDED.error,
		checked_at    = EXCLUDED.checked_at`
	_, err := s.db.Exec(ctx, query, o.URL, o.Status, o.ResponseTime, o.Available, o.Error, o.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert latest status: %w", err)
	}
	return nil
}

const latestSelect = `
	SELECT l.url, l.status, l.response_time, l.available, l.error, l.checked_at,
	       COALESCE(t.title, ''), COALESCE(t.avatar, ''), COALESCE(t.screenshot, '')
	FROM latest_status l LEFT JOIN targets t ON t.url = l.url`

func scanLatest(row pgx.Row) (*models.LatestStatus, error) {
	var ls models.LatestStatus
	if err := row.Scan(&ls.URL, &ls.Status, &ls.ResponseTime, &ls.Available, &ls.Error, &ls.CheckedAt, &ls.Title, &ls.Avatar, &ls.Screenshot); err != nil {
		return nil, err
	}
	ls.CheckedAt = ls.CheckedAt.UTC()
	return &ls, nil
}

// GetLatestStatus implements the Storer interface.
func (s *PostgresStore) GetLatestStatus(ctx context.Context, url string) (*models.LatestStatus, error) {
	ls, err := scanLatest(s.db.QueryRow(ctx, latestSelect+` WHERE l.url = $1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest status: %w", err)
	}
	return ls, nil
}

// ListLatestStatuses implements the Storer interface.
func (s *PostgresStore) ListLatestStatuses(ctx context.Context) ([]models.LatestStatus, error) {
	rows, err := s.db.Query(ctx, latestSelect+` ORDER BY l.url`)
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

// InsertHistory implements the Storer interface.
func (s *PostgresStore) InsertHistory(ctx context.Context, e *models.HistoryEntry) error {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	query := `INSERT INTO check_history (id, url, status, response_time, available, error, checked_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, query, e.ID, e.URL, e.Status, e.ResponseTime, e.Available, e.Error, e.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}
	return nil
}

func historyWhere(params storage.ListHistoryParams) (string, []any) {
	var args []any
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if params.URL != "" {
		add("url = $%d", params.URL)
	}
	if !params.Since.IsZero() {
		add("checked_at >= $%d", params.Since)
	}
	if !params.Until.IsZero() {
		add("checked_at < $%d", params.Until)
	}
	if params.Available != nil {
		add("available = $%d", *params.Available)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListHistory implements the Storer interface.
func (s *PostgresStore) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	where, args := historyWhere(params)
	query := "SELECT id, url, status, response_time, available, error, checked_at FROM check_history" + where +
		" ORDER BY checked_at DESC, id DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit, params.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.URL, &e.Status, &e.ResponseTime, &e.Available, &e.Error, &e.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CheckedAt = e.CheckedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountHistory implements the Storer interface.
func (s *PostgresStore) CountHistory(ctx context.Context, params storage.ListHistoryParams) (int, error) {
	where, args := historyWhere(params)
	var n int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM check_history"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// LatestCheckedAt implements the Storer interface.
func (s *PostgresStore) LatestCheckedAt(ctx context.Context) (time.Time, error) {
	var t *time.Time
	if err := s.db.QueryRow(ctx, `SELECT MAX(checked_at) FROM check_history`).Scan(&t); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest check: %w", err)
	}
	if t == nil {
		return time.Time{}, storage.ErrNotFound
	}
	return t.UTC(), nil
}

func split(available bool) (int64, int64) {
	if available {
		return 1, 0
	}
	return 0, 1
}

func incrementQuery(table, key string) string {
	return fmt.Sprintf(`
	INSERT INTO %[1]s (url, %[2]s, total_checks, successful_checks, failed_checks, total_response_time)
	VALUES ($1, $2, 1, $3, $4, $5)
	ON CONFLICT (url, %[2]s) DO UPDATE SET
		total_checks        = %[1]s.total_checks + 1,
		successful_checks   = %[1]s.successful_checks + EXCLUDED.successful_checks,
		failed_checks       = %[1]s.failed_checks + EXCLUDED.failed_checks,
		total_response_time = %[1]s.total_response_time + EXCLUDED.total_response_time`, table, key)
}

// IncrementMonthlyStat implements the Storer interface.
func (s *PostgresStore) IncrementMonthlyStat(ctx context.Context, url, month string, available bool, responseTime int64) error {
	ok, failed := split(available)
	if _, err := s.db.Exec(ctx, incrementQuery("monthly_stats", "month"), url, month, ok, failed, responseTime); err != nil {
		return fmt.Errorf("failed to increment monthly stat: %w", err)
	}
	return nil
}

// GetMonthlyStat implements the Storer interface.
func (s *PostgresStore) GetMonthlyStat(ctx context.Context, url, month string) (*models.MonthlyStat, error) {
	query := `SELECT url, month, total_checks, successful_checks, failed_checks, total_response_time FROM monthly_stats WHERE url = $1 AND month = $2`
	var m models.MonthlyStat
	err := s.db.QueryRow(ctx, query, url, month).Scan(&m.URL, &m.Month, &m.TotalChecks, &m.SuccessfulChecks, &m.FailedChecks, &m.TotalResponseTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly stat: %w", err)
	}
	return &m, nil
}

// ListMonthlyStats implements the Storer interface.
func (s *PostgresStore) ListMonthlyStats(ctx context.Context, url string) ([]models.MonthlyStat, error) {
	query := `SELECT url, month, total_checks, successful_checks, failed_checks, total_response_time FROM monthly_stats WHERE url = $1 ORDER BY month DESC`
	rows, err := s.db.Query(ctx, query, url)
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

// IncrementDailyStat implements the Storer interface.
func (s *PostgresStore) IncrementDailyStat(ctx context.Context, url, date string, available bool, responseTime int64) error {
	ok, failed := split(available)
	if _, err := s.db.Exec(ctx, incrementQuery("daily_stats", "date"), url, date, ok, failed, responseTime); err != nil {
		return fmt.Errorf("failed to increment daily stat: %w", err)
	}
	return nil
}

// EvictDailyStats implements the Storer interface.
func (s *PostgresStore) EvictDailyStats(ctx context.Context, url, before string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM daily_stats WHERE url = $1 AND date < $2`, url, before); err != nil {
		return fmt.Errorf("failed to evict daily stats: %w", err)
	}
	return nil
}

// ListDailyStats implements the Storer interface.
func (s *PostgresStore) ListDailyStats(ctx context.Context, url string) ([]models.WindowedDailyStat, error) {
	var args []any
	query := `SELECT url, date, total_checks, successful_checks, failed_checks, total_response_time FROM daily_stats`
	if url != "" {
		query += ` WHERE url = $1`
		args = append(args, url)
	}
	query += ` ORDER BY url, date`

	rows, err := s.db.Query(ctx, query, args...)
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

// DeleteCheckedBefore implements the Storer interface.
func (s *PostgresStore) DeleteCheckedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	for _, table := range []string{"check_history", "latest_status"} {
		tag, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE checked_at < $1", cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}
