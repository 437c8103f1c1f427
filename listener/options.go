package listener

import (
	"log/slog"
	"time"

	mi "github.com/waitpoint/waitpoint/internal/metrics"
	"github.com/waitpoint/waitpoint/metrics"
)

type Options struct {
	Logger *slog.Logger

	Metrics metrics.Client

	// SuppressionTTL is how long a finished job id suppresses redelivered
	// completion events before the store is consulted again. 0 disables the
	// suppression cache; the skipped path in the broker remains the
	// correctness backstop either way.
	SuppressionTTL time.Duration

	// ForwardEventPayload delivers the matching event's payload with the
	// resume signal instead of the broker's configured payload.
	ForwardEventPayload bool
}

var DefaultOptions Options = Options{
	Logger:         slog.Default(),
	Metrics:        mi.NewNoopMetricsClient(),
	SuppressionTTL: time.Minute,
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMetrics(client metrics.Client) Option {
	return func(o *Options) {
		o.Metrics = client
	}
}

func WithSuppressionTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.SuppressionTTL = ttl
	}
}

func WithEventPayloadForwarding() Option {
	return func(o *Options) {
		o.ForwardEventPayload = true
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
