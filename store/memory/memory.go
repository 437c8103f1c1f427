package memory

import (
	"context"
	"sync"

	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/store"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.ContinuationRecord
	options store.Options
}

var _ store.Store = (*memoryStore)(nil)

// NewMemoryStore creates an in-process continuation store. Intended for tests
// and single-process setups; records do not survive a restart.
func NewMemoryStore(opts ...store.Option) store.Store {
	return &memoryStore{
		records: map[string]*core.ContinuationRecord{},
		options: store.ApplyOptions(opts...),
	}
}

func (ms *memoryStore) Insert(ctx context.Context, record *core.ContinuationRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.records[record.JobID]; ok {
		return store.ErrAlreadyExists
	}

	r := *record
	ms.records[record.JobID] = &r

	ms.options.Logger.Debug("Registered continuation", log.JobIDKey, record.JobID)

	return nil
}

func (ms *memoryStore) Get(ctx context.Context, jobID string) (*core.ContinuationRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	record, ok := ms.records[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}

	r := *record
	return &r, nil
}

func (ms *memoryStore) Delete(ctx context.Context, jobID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.records, jobID)

	return nil
}

func (ms *memoryStore) Stats(ctx context.Context) (*store.Stats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return &store.Stats{
		PendingContinuations: int64(len(ms.records)),
	}, nil
}

func (ms *memoryStore) Close() error {
	return nil
}
