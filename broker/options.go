package broker

import (
	"log/slog"
	"time"

	mi "github.com/waitpoint/waitpoint/internal/metrics"
	"github.com/waitpoint/waitpoint/metrics"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Logger *slog.Logger

	Metrics metrics.Client

	TracerProvider trace.TracerProvider

	// ResumePayload is handed to the engine with every resume signal. The
	// broker treats it as opaque.
	ResumePayload []byte

	// MaxStepRetries bounds retries of the lookup and signal steps on
	// transient failures. Retries never cross step boundaries.
	MaxStepRetries int

	// MaxCleanupRetries bounds retries of record removal after the signal
	// step. Kept small, a failed cleanup after a successful signal is
	// flagged for manual remediation rather than retried indefinitely.
	MaxCleanupRetries int

	// InitialRetryInterval is the starting backoff interval for step retries.
	InitialRetryInterval time.Duration
}

var DefaultOptions Options = Options{
	Logger:         slog.Default(),
	Metrics:        mi.NewNoopMetricsClient(),
	TracerProvider: trace.NewNoopTracerProvider(),

	ResumePayload:        []byte(`{"status":"completed"}`),
	MaxStepRetries:       3,
	MaxCleanupRetries:    2,
	InitialRetryInterval: 100 * time.Millisecond,
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

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

func WithResumePayload(payload []byte) Option {
	return func(o *Options) {
		o.ResumePayload = payload
	}
}

func WithMaxStepRetries(retries int) Option {
	return func(o *Options) {
		o.MaxStepRetries = retries
	}
}

func WithMaxCleanupRetries(retries int) Option {
	return func(o *Options) {
		o.MaxCleanupRetries = retries
	}
}

func WithInitialRetryInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.InitialRetryInterval = interval
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
