// Package listener consumes the inbound completion-event stream, filters it
// with a caller-supplied predicate and drives one resume attempt per
// matching event.
package listener

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/waitpoint/waitpoint/broker"
	"github.com/waitpoint/waitpoint/internal/metrickeys"
	"github.com/waitpoint/waitpoint/log"
	"github.com/waitpoint/waitpoint/metrics"
)

// Subscription is a standing subscription to the inbound event stream, an
// external collaborator. Subscribe blocks until ctx is canceled or the
// stream fails, invoking handler once per delivered event. A non-nil handler
// error asks the stream to redeliver the event.
type Subscription interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, event *Event) error) error
}

// Listener matches completion events against a predicate, extracts the job
// id from the payload and invokes the broker once per matching event.
// Failures are isolated per event; one bad event never blocks the stream.
type Listener struct {
	broker    *broker.Broker
	predicate Predicate
	jobIDPath string
	options   Options

	// recent suppresses redelivered events for recently finished job ids.
	// nil when disabled.
	recent *ttlcache.Cache[string, struct{}]
}

// New creates a listener. jobIDPath is the dot-separated path locating the
// job id within matching event payloads.
func New(b *broker.Broker, predicate Predicate, jobIDPath string, opts ...Option) (*Listener, error) {
	if err := predicate.Validate(); err != nil {
		return nil, fmt.Errorf("validating predicate: %w", err)
	}

	if !validFieldPath(jobIDPath) {
		return nil, fmt.Errorf("invalid job id path %q", jobIDPath)
	}

	options := ApplyOptions(opts...)

	l := &Listener{
		broker:    b,
		predicate: predicate,
		jobIDPath: jobIDPath,
		options:   options,
	}

	if options.SuppressionTTL > 0 {
		l.recent = ttlcache.New(
			ttlcache.WithTTL[string, struct{}](options.SuppressionTTL),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		)
	}

	return l, nil
}

// Run consumes the subscription until ctx is canceled or the stream fails.
func (l *Listener) Run(ctx context.Context, sub Subscription) error {
	if l.recent != nil {
		go l.recent.Start()
		defer l.recent.Stop()
	}

	return sub.Subscribe(ctx, l.handleEvent)
}

func (l *Listener) handleEvent(ctx context.Context, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.options.Logger.Error("Recovered from panic while handling event",
				log.EventIDKey, event.ID,
				log.PanicKey, fmt.Sprintf("%v", r),
				log.StackKey, string(goerrors.Wrap(r, 2).Stack()))

			// Swallow the panic, redelivering the event would only panic again
			err = nil
		}
	}()

	if !l.predicate.Matches(event) {
		l.options.Metrics.Counter(metrickeys.EventsDropped, metrics.Tags{}, 1)
		return nil
	}

	l.options.Metrics.Counter(metrickeys.EventsMatched, metrics.Tags{}, 1)

	jobID, err := l.extractJobID(event)
	if err != nil {
		// A matching event without a job id cannot be correlated; retrying
		// would not change that
		l.options.Logger.Warn("Dropping event without job id",
			log.EventIDKey, event.ID,
			log.EventSourceKey, event.Source,
			log.EventTypeKey, event.Type,
			log.ErrorKey, err)
		return nil
	}

	logger := l.options.Logger.With(log.JobIDKey, jobID, log.EventIDKey, event.ID)

	if l.recent != nil && l.recent.Get(jobID) != nil {
		l.options.Metrics.Counter(metrickeys.SuppressionHits, metrics.Tags{}, 1)
		logger.Debug("Suppressed redelivered completion event")
		return nil
	}

	result, err := l.resume(ctx, jobID, event)
	if err != nil {
		// Terminal failure for this attempt; the stream's redelivery is the
		// backstop
		logger.Error("Resume attempt failed", log.ErrorKey, err)
		return err
	}

	if result.State == broker.StateDone && l.recent != nil {
		l.recent.Set(jobID, struct{}{}, ttlcache.DefaultTTL)
	}

	logger.Debug("Resume attempt finished", log.StateKey, string(result.State))

	return nil
}

func (l *Listener) resume(ctx context.Context, jobID string, event *Event) (*broker.ResumeResult, error) {
	if l.options.ForwardEventPayload {
		return l.broker.ResumeWithPayload(ctx, jobID, event.Payload)
	}

	return l.broker.Resume(ctx, jobID)
}

func (l *Listener) extractJobID(event *Event) (string, error) {
	payload, err := decodePayload(event.Payload)
	if err != nil {
		return "", fmt.Errorf("decoding event payload: %w", err)
	}

	v, ok := fieldValue(payload, l.jobIDPath)
	if !ok {
		return "", fmt.Errorf("no value at %q", l.jobIDPath)
	}

	jobID, ok := v.(string)
	if !ok || jobID == "" {
		return "", fmt.Errorf("value at %q is not a non-empty string", l.jobIDPath)
	}

	return jobID, nil
}
