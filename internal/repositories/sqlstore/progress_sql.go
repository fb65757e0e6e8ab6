package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures the progress schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:quiz-progress.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/quiz?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS quiz_progress (
  storage_key TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);`

// ProgressSQL stores progress records in a quiz_progress table.
type ProgressSQL struct {
	db     *sql.DB
	driver Driver
}

func NewProgressSQL(db *sql.DB, driver Driver) *ProgressSQL {
	return &ProgressSQL{db: db, driver: driver}
}

func (s *ProgressSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM quiz_progress WHERE storage_key = ?`), key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (s *ProgressSQL) Save(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO quiz_progress (storage_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (storage_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		key, string(payload), time.Now().UnixMilli())
	return err
}

func (s *ProgressSQL) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM quiz_progress WHERE storage_key = ?`), key)
	return err
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *ProgressSQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

var _ repositories.ProgressRepository = (*ProgressSQL)(nil)
