package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	mysqlmigrate "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/store"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

// Duplicate primary key
const mysqlErrDuplicateEntry = 1062

// NewMysqlStore creates a continuation store backed by a mysql database.
// Conditional inserts rely on the primary key constraint, so no external
// locking is required for concurrent suspends.
func NewMysqlStore(host string, port int, user, password, database string, opts ...option) *mysqlStore {
	options := &options{
		Options:         store.ApplyOptions(),
		ApplyMigrations: true,
	}

	for _, opt := range opts {
		opt(options)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&interpolateParams=true", user, password, host, port, database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		panic(err)
	}

	s := &mysqlStore{
		dsn:     dsn,
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

var _ store.Store = (*mysqlStore)(nil)

type mysqlStore struct {
	dsn     string
	db      *sql.DB
	options *options
}

// Migrate applies any pending database migrations.
func (s *mysqlStore) Migrate() error {
	schemaDsn := s.dsn + "&multiStatements=true"
	db, err := sql.Open("mysql", schemaDsn)
	if err != nil {
		return fmt.Errorf("opening schema database: %w", err)
	}

	dbi, err := mysqlmigrate.WithInstance(db, &mysqlmigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	migrations, err := iofs.New(migrationsFS, "db/migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", migrations, "mysql", dbi)
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("closing schema database: %w", err)
	}

	return nil
}

func (s *mysqlStore) Insert(ctx context.Context, record *core.ContinuationRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO `continuations` (job_id, handle, created_at) VALUES (?, ?, ?)",
		record.JobID,
		record.Handle,
		record.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return store.ErrAlreadyExists
		}

		return fmt.Errorf("storing continuation record: %w", err)
	}

	s.options.Logger.Debug("Registered continuation", log.JobIDKey, record.JobID)

	return nil
}

func (s *mysqlStore) Get(ctx context.Context, jobID string) (*core.ContinuationRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		"SELECT job_id, handle, created_at FROM `continuations` WHERE job_id = ?",
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

func (s *mysqlStore) Delete(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM `continuations` WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("deleting continuation record: %w", err)
	}

	return nil
}

func (s *mysqlStore) Stats(ctx context.Context) (*store.Stats, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM `continuations`")

	var count int64
	if err := row.Scan(&count); err != nil {
		return nil, fmt.Errorf("counting continuation records: %w", err)
	}

	return &store.Stats{
		PendingContinuations: count,
	}, nil
}

func (s *mysqlStore) Close() error {
	return s.db.Close()
}
