// Package sqlstore implements service.Backend on a SQL table,
// using the pgx driver for Postgres or go-sql-driver for MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tasksync/internal/service"
)

// QueryTimeout is the timeout for a single statement.
const QueryTimeout = 5 * time.Second

// Dialect captures the differences between the supported databases.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// Placeholder returns the bind parameter for 1-based position n.
	Placeholder func(n int) string

	// CreateTable is the idempotent DDL for the todos table.
	CreateTable string
}

// Postgres uses the pgx stdlib driver.
var Postgres = Dialect{
	Driver:      "pgx",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	CreateTable: `CREATE TABLE IF NOT EXISTS todos (
    id UUID PRIMARY KEY,
    task TEXT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// MySQL uses go-sql-driver/mysql.
var MySQL = Dialect{
	Driver:      "mysql",
	Placeholder: func(int) string { return "?" },
	CreateTable: `CREATE TABLE IF NOT EXISTS todos (
    id CHAR(36) PRIMARY KEY,
    task TEXT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME(6) NOT NULL,
    INDEX idx_todos_created_at (created_at)
)`,
}

// Store implements service.Backend on a *sql.DB.
type Store struct {
	db    *sql.DB
	d     Dialect
	now   func() time.Time
	newID func() string
}

// Open connects with dsn, pings, and creates the table if needed.
func Open(ctx context.Context, d Dialect, dsn string) (*Store, error) {
	if d.Driver == MySQL.Driver {
		var err error
		if dsn, err = NormalizeMySQLDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Driver, err)
	}

	s := New(db, d)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The table must already exist.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{
		db:    db,
		d:     d,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// NormalizeMySQLDSN turns on the options the store relies on:
// DATETIME scanning into time.Time in UTC, and matched (not changed) row counts.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, s.d.CreateTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	return nil
}

// bind replaces each ? in q with the dialect's placeholder.
func (s *Store) bind(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(s.d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// List returns all rows ordered by created_at descending.
func (s *Store) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, is_completed, created_at FROM todos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		var t service.Task
		if err := rows.Scan(&t.ID, &t.Task, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, wrapError(err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return tasks, nil
}

// Create inserts a row with a new uuid and the current time.
func (s *Store) Create(ctx context.Context, text string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	t := service.Task{
		ID:          s.newID(),
		Task:        text,
		IsCompleted: false,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.db.ExecContext(ctx,
		s.bind(`INSERT INTO todos (id, task, is_completed, created_at) VALUES (?, ?, ?, ?)`),
		t.ID, t.Task, t.IsCompleted, t.CreatedAt)
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return t, nil
}

// Update sets is_completed on the row with id.
func (s *Store) Update(ctx context.Context, id string, isCompleted bool) error {
	if uuid.Validate(id) != nil {
		return service.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		s.bind(`UPDATE todos SET is_completed = ? WHERE id = ?`), isCompleted, id)
	if err != nil {
		return wrapError(err)
	}
	return expectOne(res)
}

// Delete removes the row with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return service.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return wrapError(err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrNotFound
	}
	return nil
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	return err
}
