package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/store"
)

// StoreTest runs the conformance suite against a Store implementation. setup
// must return an empty store; teardown, if given, is responsible for closing
// it.
func StoreTest(t *testing.T, setup func() store.Store, teardown func(s store.Store)) {
	tests := []struct {
		name string
		f    func(t *testing.T, ctx context.Context, s store.Store)
	}{
		{
			name: "Get_UnknownJobIDReturnsNotFound",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				record, err := s.Get(ctx, uuid.NewString())
				require.ErrorIs(t, err, store.ErrNotFound)
				require.Nil(t, record)
			},
		},
		{
			name: "Insert_RoundTrips",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				jobID := uuid.NewString()
				now := time.Now().UTC()

				err := s.Insert(ctx, core.NewContinuationRecord(jobID, "h1", now))
				require.NoError(t, err)

				record, err := s.Get(ctx, jobID)
				require.NoError(t, err)
				require.Equal(t, jobID, record.JobID)
				require.Equal(t, "h1", record.Handle)
				require.WithinDuration(t, now, record.CreatedAt, time.Second)
			},
		},
		{
			name: "Insert_DuplicateJobIDReturnsAlreadyExists",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				jobID := uuid.NewString()

				err := s.Insert(ctx, core.NewContinuationRecord(jobID, "h1", time.Now().UTC()))
				require.NoError(t, err)

				err = s.Insert(ctx, core.NewContinuationRecord(jobID, "h2", time.Now().UTC()))
				require.ErrorIs(t, err, store.ErrAlreadyExists)

				// Stored handle must be unchanged
				record, err := s.Get(ctx, jobID)
				require.NoError(t, err)
				require.Equal(t, "h1", record.Handle)
			},
		},
		{
			name: "Delete_RemovesRecord",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				jobID := uuid.NewString()

				err := s.Insert(ctx, core.NewContinuationRecord(jobID, "h1", time.Now().UTC()))
				require.NoError(t, err)

				err = s.Delete(ctx, jobID)
				require.NoError(t, err)

				_, err = s.Get(ctx, jobID)
				require.ErrorIs(t, err, store.ErrNotFound)
			},
		},
		{
			name: "Delete_AbsentKeyIsIdempotent",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				jobID := uuid.NewString()

				require.NoError(t, s.Delete(ctx, jobID))
				require.NoError(t, s.Delete(ctx, jobID))
			},
		},
		{
			name: "Insert_AllowedAgainAfterDelete",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				jobID := uuid.NewString()

				require.NoError(t, s.Insert(ctx, core.NewContinuationRecord(jobID, "h1", time.Now().UTC())))
				require.NoError(t, s.Delete(ctx, jobID))
				require.NoError(t, s.Insert(ctx, core.NewContinuationRecord(jobID, "h2", time.Now().UTC())))

				record, err := s.Get(ctx, jobID)
				require.NoError(t, err)
				require.Equal(t, "h2", record.Handle)
			},
		},
		{
			name: "Stats_CountsPendingContinuations",
			f: func(t *testing.T, ctx context.Context, s store.Store) {
				stats, err := s.Stats(ctx)
				require.NoError(t, err)
				require.Equal(t, int64(0), stats.PendingContinuations)

				require.NoError(t, s.Insert(ctx, core.NewContinuationRecord(uuid.NewString(), "h1", time.Now().UTC())))
				require.NoError(t, s.Insert(ctx, core.NewContinuationRecord(uuid.NewString(), "h2", time.Now().UTC())))

				stats, err = s.Stats(ctx)
				require.NoError(t, err)
				require.Equal(t, int64(2), stats.PendingContinuations)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setup()

			tt.f(t, context.Background(), s)

			if teardown != nil {
				teardown(s)
			} else {
				require.NoError(t, s.Close())
			}
		})
	}
}
