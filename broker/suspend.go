package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/internal/metrickeys"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/metrics"
	"github.com/waitpoint/waitpoint/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrJobAlreadyRegistered indicates the caller reused a job id that is still
// awaiting resumption. This is a configuration error in the integration, not
// a transient condition; callers must not retry.
var ErrJobAlreadyRegistered = errors.New("job id is already awaiting resumption")

// Suspend durably registers the continuation handle for the given job id. It
// performs exactly one conditional write and returns without blocking;
// parking the execution itself is the engine's responsibility.
func (b *Broker) Suspend(ctx context.Context, jobID, handle string) error {
	ctx, span := b.tracer().Start(ctx, "Suspend", trace.WithAttributes(
		attribute.String(log.JobIDKey, jobID),
	))
	defer span.End()

	record := core.NewContinuationRecord(jobID, handle, b.clock.Now().UTC())

	if err := b.store.Insert(ctx, record); err != nil {
		span.RecordError(err)

		if errors.Is(err, store.ErrAlreadyExists) {
			b.options.Metrics.Counter(metrickeys.SuspendRejected, metrics.Tags{}, 1)
			return fmt.Errorf("job %q: %w", jobID, ErrJobAlreadyRegistered)
		}

		return fmt.Errorf("registering continuation: %w", err)
	}

	b.options.Metrics.Counter(metrickeys.SuspendRegistered, metrics.Tags{}, 1)
	b.options.Logger.Debug("Registered continuation for suspended execution", log.JobIDKey, jobID)

	return nil
}
