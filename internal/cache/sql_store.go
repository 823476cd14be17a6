package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// SQLStore persists cache rows in MySQL. REPLACE INTO gives the
// delete-then-insert upsert as a single atomic statement, so a racing read
// never sees a transient absence.
type SQLStore struct {
	conn *sql.DB
}

// NewSQLStore wraps an open connection pool and creates the cache table
// if needed.
func NewSQLStore(conn *sql.DB) (*SQLStore, error) {
	store := &SQLStore{conn: conn}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) initSchema() error {
	stmt := `CREATE TABLE IF NOT EXISTS weather_cache (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		cache_key VARCHAR(100) NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uniq_weather_cache_key (cache_key),
		INDEX idx_weather_cache_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	if _, err := s.conn.Exec(stmt); err != nil {
		return fmt.Errorf("creating weather_cache table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT cache_key, payload, created_at FROM weather_cache WHERE cache_key = ?`, key)

	var e Entry
	if err := row.Scan(&e.Key, &e.Payload, &e.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache row: %w", err)
	}
	return &e, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, payload []byte) error {
	// REPLACE deletes any row with the same cache_key and inserts a fresh
	// one, so created_at always reflects this write.
	_, err := s.conn.ExecContext(ctx,
		`REPLACE INTO weather_cache (cache_key, payload, created_at) VALUES (?, ?, ?)`,
		key, payload, time.Now())
	if err != nil {
		return fmt.Errorf("upserting cache row: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM weather_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache row: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM weather_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting cache rows before cutoff: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted cache rows: %w", err)
	}
	return int(affected), nil
}

func (s *SQLStore) TrimToSize(ctx context.Context, max int) (int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if max < 0 {
		max = 0
	}
	over := total - max
	if over <= 0 {
		return 0, nil
	}

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM weather_cache ORDER BY created_at ASC, id ASC LIMIT ?`, over)
	if err != nil {
		return 0, fmt.Errorf("trimming cache: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting trimmed cache rows: %w", err)
	}

	log.Debug().Int64("removed", affected).Int("max", max).Msg("Trimmed cache to size cap")
	return int(affected), nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weather_cache`).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting cache rows: %w", err)
	}
	return total, nil
}
