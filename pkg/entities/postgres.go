package entities

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDirectory reads entities from the main application's
// PostgreSQL database. One table per container kind, all with the
// same (id, domain_id, added_time) shape.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory opens a connection pool against the given URL
// and verifies connectivity.
func NewPostgresDirectory(url string, maxConns int) (*PostgresDirectory, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDirectory{db: db}, nil
}

// NewPostgresDirectoryFromDB wraps an existing handle. Used by tests.
func NewPostgresDirectoryFromDB(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Close closes the underlying connection pool.
func (d *PostgresDirectory) Close() error {
	return d.db.Close()
}

// tableFor maps a kind to its table. Kind.String() already yields the
// plural snake_case table names used by the main application schema.
func tableFor(kind Kind) string {
	return kind.String()
}

// Get implements Directory.
func (d *PostgresDirectory) Get(ctx context.Context, kind Kind, id int64) (*Entity, error) {
	query := fmt.Sprintf(
		"SELECT id, domain_id, added_time FROM %s WHERE id = $1 AND deleted_at IS NULL",
		tableFor(kind),
	)

	e := Entity{Kind: kind}
	err := d.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.DomainID, &e.AddedTime)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableFor(kind), err)
	}

	e.AddedTime = e.AddedTime.UTC()
	return &e, nil
}

// List implements Directory.
func (d *PostgresDirectory) List(ctx context.Context, kind Kind) ([]Entity, error) {
	query := fmt.Sprintf(
		"SELECT id, domain_id, added_time FROM %s WHERE deleted_at IS NULL ORDER BY id",
		tableFor(kind),
	)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", tableFor(kind), err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e := Entity{Kind: kind}
		if err := rows.Scan(&e.ID, &e.DomainID, &e.AddedTime); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", tableFor(kind), err)
		}
		e.AddedTime = e.AddedTime.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", tableFor(kind), err)
	}
	return out, nil
}

// Exists implements Directory.
func (d *PostgresDirectory) Exists(ctx context.Context, kind Kind, id int64) (bool, error) {
	query := fmt.Sprintf(
		"SELECT 1 FROM %s WHERE id = $1 AND deleted_at IS NULL",
		tableFor(kind),
	)

	var one int
	err := d.db.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", tableFor(kind), err)
	}
	return true, nil
}
