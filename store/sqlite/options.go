package sqlite

import (
	"github.com/waitpoint/waitpoint/store"
)

type options struct {
	store.Options

	// ApplyMigrations automatically applies database migrations when the
	// store is created.
	ApplyMigrations bool
}

type option func(*options)

// WithApplyMigrations automatically applies database migrations when the
// store is created.
func WithApplyMigrations(applyMigrations bool) option {
	return func(o *options) {
		o.ApplyMigrations = applyMigrations
	}
}

// WithStoreOptions allows setting generic store options.
func WithStoreOptions(opts ...store.Option) option {
	return func(o *options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
