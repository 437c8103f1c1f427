package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/store"

	_ "modernc.org/sqlite"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

// NewInMemoryStore creates a continuation store backed by an in-memory
// sqlite database. Records do not survive a restart.
func NewInMemoryStore(opts ...option) *sqliteStore {
	return newSqliteStore("file::memory:", opts...)
}

// NewSqliteStore creates a continuation store backed by a sqlite database at
// the given path.
func NewSqliteStore(path string, opts ...option) *sqliteStore {
	return newSqliteStore(fmt.Sprintf("file:%v", path), opts...)
}

func newSqliteStore(dsn string, opts ...option) *sqliteStore {
	options := &options{
		Options:         store.ApplyOptions(),
		ApplyMigrations: true,
	}

	for _, opt := range opts {
		opt(options)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		panic(err)
	}

	// Sqlite does not support multiple writers. Limit connections to one to
	// avoid SQLITE_BUSY errors, this also keeps the in-memory variant on a
	// single database.
	db.SetMaxOpenConns(1)

	s := &sqliteStore{
		db:      db,
		options: options,
	}

	if options.ApplyMigrations {
		if err := s.Migrate(); err != nil {
			panic(err)
		}
	}

	return s
}

var _ store.Store = (*sqliteStore)(nil)

type sqliteStore struct {
	db      *sql.DB
	options *options
}

// Migrate applies any pending database migrations.
func (s *sqliteStore) Migrate() error {
	dbi, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	migrations, err := iofs.New(migrationsFS, "db/migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", migrations, "sqlite", dbi)
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	return nil
}

func (s *sqliteStore) Insert(ctx context.Context, record *core.ContinuationRecord) error {
	res, err := s.db.ExecContext(
		ctx,
		"INSERT OR IGNORE INTO continuations (job_id, handle, created_at) VALUES (?, ?, ?)",
		record.JobID,
		record.Handle,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storing continuation record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing continuation record: %w", err)
	}

	if rows == 0 {
		return store.ErrAlreadyExists
	}

	s.options.Logger.Debug("Registered continuation", log.JobIDKey, record.JobID)

	return nil
}

func (s *sqliteStore) Get(ctx context.Context, jobID string) (*core.ContinuationRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		"SELECT job_id, handle, created_at FROM continuations WHERE job_id = ?",
		jobID,
	)

	var record core.ContinuationRecord
	if err := row.Scan(&record.JobID, &record.Handle, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}

		return nil, fmt.Errorf("reading continuation record: %w", err)
	}

	return &record, nil
}

func (s *sqliteStore) Delete(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM continuations WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("deleting continuation record: %w", err)
	}

	return nil
}

func (s *sqliteStore) Stats(ctx context.Context) (*store.Stats, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM continuations")

	var count int64
	if err := row.Scan(&count); err != nil {
		return nil, fmt.Errorf("counting continuation records: %w", err)
	}

	return &store.Stats{
		PendingContinuations: count,
	}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
