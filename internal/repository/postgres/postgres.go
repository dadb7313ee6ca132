package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rainwatch/backend/internal/domain"
)

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the fetch log table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS station_fetch_log (
			id          BIGSERIAL PRIMARY KEY,
			fetched_at  TIMESTAMPTZ NOT NULL,
			station     TEXT NOT NULL,
			success     BOOLEAN NOT NULL,
			message     TEXT,
			hourly_rows INTEGER NOT NULL,
			daily_rows  INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL
		)
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("postgres: failed to create fetch log table: %w", err)
	}
	return nil
}

// SaveFetchLog persists the outcome of a station fetch
func (r *PostgresRepository) SaveFetchLog(ctx context.Context, entry domain.FetchLog) error {
	query := `
		INSERT INTO station_fetch_log (
			fetched_at, station, success, message, hourly_rows, daily_rows, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// Store NULL rather than an empty message for successful fetches
	var message interface{}
	if entry.Message != "" {
		message = entry.Message
	}

	_, err := r.pool.Exec(ctx, query,
		entry.FetchedAt, entry.Station, entry.Success, message,
		entry.HourlyRows, entry.DailyRows, entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save fetch log: %w", err)
	}

	return nil
}

// GetFetchLogs retrieves fetch outcomes from PostgreSQL
func (r *PostgresRepository) GetFetchLogs(ctx context.Context, from, to time.Time) ([]domain.FetchLog, error) {
	query := `
		SELECT fetched_at, station, success, COALESCE(message, ''),
			   hourly_rows, daily_rows, duration_ms
		FROM station_fetch_log
		WHERE fetched_at BETWEEN $1 AND $2
		ORDER BY fetched_at DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query fetch log: %w", err)
	}
	defer rows.Close()

	results := []domain.FetchLog{}
	for rows.Next() {
		var (
			f          domain.FetchLog
			durationMS int64
		)
		err := rows.Scan(
			&f.FetchedAt, &f.Station, &f.Success, &f.Message,
			&f.HourlyRows, &f.DailyRows, &durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan fetch log row: %w", err)
		}
		f.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate fetch log: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
