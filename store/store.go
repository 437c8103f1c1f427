package store

import (
	"context"
	"errors"

	"github.com/waitpoint/waitpoint/core"
)

var (
	// ErrAlreadyExists is returned by Insert when a live record exists for the job id.
	ErrAlreadyExists = errors.New("continuation record already exists")

	// ErrNotFound is returned by Get when no record exists for the job id.
	ErrNotFound = errors.New("continuation record not found")
)

//go:generate mockery --name=Store --inpackage
type Store interface {
	// Insert durably records the continuation for record.JobID. It fails with
	// ErrAlreadyExists if a record for the job id is already present; it
	// never overwrites. The insert must be atomic and conditional, it is the
	// sole mutual-exclusion primitive preventing two suspends from colliding
	// on one job id.
	Insert(ctx context.Context, record *core.ContinuationRecord) error

	// Get returns the record for the given job id, or ErrNotFound.
	Get(ctx context.Context, jobID string) (*core.ContinuationRecord, error)

	// Delete removes the record for the given job id. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, jobID string) error

	// Stats returns stats about the store
	Stats(ctx context.Context) (*Stats, error)

	// Close closes any underlying resources
	Close() error
}

type Stats struct {
	// PendingContinuations is the number of live continuation records, i.e.
	// executions currently parked awaiting a job.
	PendingContinuations int64
}
