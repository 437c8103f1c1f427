package store

import (
	"log/slog"
)

type Options struct {
	Logger *slog.Logger
}

var DefaultOptions Options = Options{
	Logger: slog.Default(),
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func ApplyOptions(opts ...Option) Options {
	options := DefaultOptions

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return options
}
