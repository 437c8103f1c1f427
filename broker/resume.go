package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/engine"
	"github.com/waitpoint/waitpoint/internal/metrickeys"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/metrics"
	"github.com/waitpoint/waitpoint/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TerminalState of a resume attempt.
type TerminalState string

const (
	// StateSkipped means no continuation was pending for the job id, either
	// because the execution was never suspended or because the resume
	// already completed. Expected under at-least-once event delivery.
	StateSkipped TerminalState = "skipped"

	// StateDone means the attempt ran the signal and cleanup steps.
	StateDone TerminalState = "done"
)

// ResumeResult describes the terminal state of a single resume attempt.
type ResumeResult struct {
	// AttemptID correlates log entries and spans of one attempt.
	AttemptID string

	State TerminalState

	// SignalRejected is set when the engine refused the handle, e.g. because
	// it expired or the execution finished by other means. The record is
	// still removed, a stale handle cannot be usefully retried.
	SignalRejected bool

	// CleanupFailed is set when the record could not be removed after the
	// signal step. The signal is not undoable, so this requires manual
	// remediation.
	CleanupFailed bool
}

// Resume runs one resume attempt for the given job id: look up the
// continuation handle, signal the engine, remove the record. It returns an
// error only when a step failed before reaching a terminal state; the
// inbound event's own redelivery is the backstop for re-driving such
// attempts.
func (b *Broker) Resume(ctx context.Context, jobID string) (*ResumeResult, error) {
	return b.resume(ctx, jobID, b.options.ResumePayload)
}

// ResumeWithPayload runs one resume attempt delivering the given payload to
// the engine instead of the configured one.
func (b *Broker) ResumeWithPayload(ctx context.Context, jobID string, payload []byte) (*ResumeResult, error) {
	return b.resume(ctx, jobID, payload)
}

func (b *Broker) resume(ctx context.Context, jobID string, payload []byte) (*ResumeResult, error) {
	attemptID := uuid.NewString()

	ctx, span := b.tracer().Start(ctx, "Resume", trace.WithAttributes(
		attribute.String(log.JobIDKey, jobID),
		attribute.String(log.AttemptIDKey, attemptID),
	))
	defer span.End()

	logger := b.options.Logger.With(log.JobIDKey, jobID, log.AttemptIDKey, attemptID)

	timer := metrics.Timer(b.options.Metrics, metrickeys.ResumeDuration, metrics.Tags{})
	defer timer.Stop()

	result := &ResumeResult{
		AttemptID: attemptID,
	}

	// Lookup
	record, err := b.lookup(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			result.State = StateSkipped
			span.SetAttributes(attribute.String(log.StateKey, string(StateSkipped)))

			b.options.Metrics.Counter(metrickeys.ResumeSkipped, metrics.Tags{}, 1)
			logger.Debug("No pending continuation for job")

			return result, nil
		}

		span.RecordError(err)
		return nil, fmt.Errorf("looking up continuation: %w", err)
	}

	// Signal
	if err := b.signal(ctx, record.Handle, payload); err != nil {
		if !errors.Is(err, engine.ErrSignalRejected) {
			// Transport failure with retries exhausted. The record stays in
			// place so a redelivered event can drive another attempt.
			span.RecordError(err)
			return nil, fmt.Errorf("signaling engine: %w", err)
		}

		result.SignalRejected = true
		span.RecordError(err)

		b.options.Metrics.Counter(metrickeys.ResumeSignalRejected, metrics.Tags{}, 1)
		logger.Warn("Engine rejected resume signal", log.ErrorKey, err)
	}

	// Cleanup. Runs whether the signal was accepted or rejected, the record
	// must not outlive the attempt.
	if err := b.cleanup(ctx, jobID); err != nil {
		result.CleanupFailed = true
		span.RecordError(err)

		b.options.Metrics.Counter(metrickeys.ResumeCleanupFailed, metrics.Tags{}, 1)
		logger.Error("Removing continuation record failed",
			log.ErrorKey, err,
			log.ManualCleanupKey, true)
	}

	result.State = StateDone
	span.SetAttributes(attribute.String(log.StateKey, string(StateDone)))

	if !result.SignalRejected {
		b.options.Metrics.Counter(metrickeys.ResumeCompleted, metrics.Tags{}, 1)
		logger.Debug("Resumed suspended execution")
	}

	return result, nil
}

func (b *Broker) lookup(ctx context.Context, jobID string) (*core.ContinuationRecord, error) {
	var record *core.ContinuationRecord

	op := func() error {
		var err error
		record, err = b.store.Get(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			return backoff.Permanent(err)
		}

		return err
	}

	if err := backoff.Retry(op, b.retryPolicy(ctx, b.options.MaxStepRetries)); err != nil {
		return nil, err
	}

	return record, nil
}

func (b *Broker) signal(ctx context.Context, handle string, payload []byte) error {
	op := func() error {
		err := b.signaler.Signal(ctx, handle, payload)
		if errors.Is(err, engine.ErrSignalRejected) {
			return backoff.Permanent(err)
		}

		return err
	}

	return backoff.Retry(op, b.retryPolicy(ctx, b.options.MaxStepRetries))
}

func (b *Broker) cleanup(ctx context.Context, jobID string) error {
	op := func() error {
		return b.store.Delete(ctx, jobID)
	}

	return backoff.Retry(op, b.retryPolicy(ctx, b.options.MaxCleanupRetries))
}
