package redis

import (
	"github.com/waitpoint/waitpoint/store"
)

type RedisOptions struct {
	store.Options

	// KeyPrefix is prepended to every key written by this store.
	KeyPrefix string
}

type RedisStoreOption func(*RedisOptions)

func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(o *RedisOptions) {
		o.KeyPrefix = prefix
	}
}

func WithStoreOptions(opts ...store.Option) RedisStoreOption {
	return func(o *RedisOptions) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
