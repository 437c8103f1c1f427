package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/store"
)

var _ store.Store = (*redisStore)(nil)

// NewRedisStore creates a continuation store backed by the given redis
// client. Conditional inserts rely on SETNX, so no external locking is
// required for concurrent suspends.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *redisStore {
	// Default options
	options := &RedisOptions{
		Options:   store.ApplyOptions(),
		KeyPrefix: "waitpoint:",
	}

	for _, opt := range opts {
		opt(options)
	}

	return &redisStore{
		rdb:     client,
		options: options,
	}
}

type redisStore struct {
	rdb     redis.UniversalClient
	options *RedisOptions
}

func (rs *redisStore) Insert(ctx context.Context, record *core.ContinuationRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling continuation record: %w", err)
	}

	ok, err := rs.rdb.SetNX(ctx, continuationKey(rs.options.KeyPrefix, record.JobID), string(b), 0).Result()
	if err != nil {
		return fmt.Errorf("storing continuation record: %w", err)
	}

	if !ok {
		return store.ErrAlreadyExists
	}

	rs.options.Logger.Debug("Registered continuation", log.JobIDKey, record.JobID)

	return nil
}

func (rs *redisStore) Get(ctx context.Context, jobID string) (*core.ContinuationRecord, error) {
	res, err := rs.rdb.Get(ctx, continuationKey(rs.options.KeyPrefix, jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, store.ErrNotFound
		}

		return nil, fmt.Errorf("reading continuation record: %w", err)
	}

	var record *core.ContinuationRecord
	if err := json.Unmarshal([]byte(res), &record); err != nil {
		return nil, fmt.Errorf("unmarshaling continuation record: %w", err)
	}

	return record, nil
}

func (rs *redisStore) Delete(ctx context.Context, jobID string) error {
	if err := rs.rdb.Del(ctx, continuationKey(rs.options.KeyPrefix, jobID)).Err(); err != nil {
		return fmt.Errorf("deleting continuation record: %w", err)
	}

	return nil
}

func (rs *redisStore) Stats(ctx context.Context) (*store.Stats, error) {
	var count int64

	iter := rs.rdb.Scan(ctx, 0, continuationKey(rs.options.KeyPrefix, "*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning continuation records: %w", err)
	}

	return &store.Stats{
		PendingContinuations: count,
	}, nil
}

func (rs *redisStore) Close() error {
	return rs.rdb.Close()
}
