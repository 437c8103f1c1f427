// Package broker implements the resume-token broker: it durably records the
// continuation handle of a suspended workflow execution keyed by an external
// job id, and on completion of the job looks the handle up, signals the
// engine to resume the execution and removes the record.
//
// All state lives in the injected store; a Broker itself is stateless and
// safe for concurrent use.
package broker

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/waitpoint/waitpoint/engine"
	"github.com/waitpoint/waitpoint/store"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "waitpoint"

type Broker struct {
	store    store.Store
	signaler engine.Signaler
	clock    clock.Clock
	options  Options
}

// New creates a broker on top of the given continuation store and engine
// signaler.
func New(s store.Store, signaler engine.Signaler, opts ...Option) *Broker {
	return &Broker{
		store:    s,
		signaler: signaler,
		clock:    clock.New(),
		options:  ApplyOptions(opts...),
	}
}

func (b *Broker) tracer() trace.Tracer {
	return b.options.TracerProvider.Tracer(TracerName)
}

func (b *Broker) retryPolicy(ctx context.Context, maxRetries int) backoff.BackOffContext {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.options.InitialRetryInterval
	eb.Clock = b.clock

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxRetries)), ctx)
}
