package location

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mizukake/tenki/internal/models"
)

// SQLStore reads locations from MySQL. It shares the connection pool with
// the cache store.
type SQLStore struct {
	conn *sql.DB
}

func NewSQLStore(conn *sql.DB) (*SQLStore, error) {
	store := &SQLStore{conn: conn}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) initSchema() error {
	stmt := `CREATE TABLE IF NOT EXISTS locations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		address VARCHAR(255) NOT NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		api_key VARCHAR(100) NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	if _, err := s.conn.Exec(stmt); err != nil {
		return fmt.Errorf("creating locations table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*models.Location, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, address, latitude, longitude, COALESCE(api_key, '')
		 FROM locations WHERE id = ?`, id)

	var loc models.Location
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &loc.APIKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading location: %w", err)
	}
	return &loc, nil
}

func (s *SQLStore) List(ctx context.Context) ([]models.Location, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, address, latitude, longitude, COALESCE(api_key, '') FROM locations`)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &loc.APIKey); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
