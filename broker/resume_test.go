package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waitpoint/waitpoint/core"
	"github.com/waitpoint/waitpoint/engine"
	"github.com/waitpoint/waitpoint/store"
	"github.com/waitpoint/waitpoint/store/memory"
)

type signalCall struct {
	handle  string
	payload []byte
}

// fakeSignaler records signal calls and plays back a scripted sequence of
// errors, returning nil once the sequence is exhausted.
type fakeSignaler struct {
	mu    sync.Mutex
	calls []signalCall
	errs  []error
}

func (f *fakeSignaler) Signal(ctx context.Context, handle string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, signalCall{handle: handle, payload: payload})

	if len(f.errs) == 0 {
		return nil
	}

	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSignaler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func newTestBroker(s store.Store, signaler engine.Signaler, opts ...Option) *Broker {
	opts = append([]Option{WithInitialRetryInterval(time.Millisecond)}, opts...)

	return &Broker{
		store:    s,
		signaler: signaler,
		clock:    clock.New(),
		options:  ApplyOptions(opts...),
	}
}

func Test_Resume_SkippedWhenNoPendingContinuation(t *testing.T) {
	ctx := context.Background()

	signaler := &fakeSignaler{}
	b := newTestBroker(memory.NewMemoryStore(), signaler)

	result, err := b.Resume(ctx, "job-99")
	require.NoError(t, err)
	require.Equal(t, StateSkipped, result.State)

	// The engine must not be signaled on the no-op path
	require.Zero(t, signaler.callCount())
}

func Test_Resume_SignalsEngineAndDeletesRecord(t *testing.T) {
	ctx := context.Background()

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{}
	b := newTestBroker(s, signaler)

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)
	require.False(t, result.SignalRejected)
	require.False(t, result.CleanupFailed)

	require.Equal(t, 1, signaler.callCount())
	require.Equal(t, "h1", signaler.calls[0].handle)
	require.JSONEq(t, `{"status":"completed"}`, string(signaler.calls[0].payload))

	_, err = s.Get(ctx, "job-42")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Resume_RedeliveredEventSkipsAfterCompletion(t *testing.T) {
	ctx := context.Background()

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{}
	b := newTestBroker(s, signaler)

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)

	// At-least-once delivery: the same completion arrives again
	result, err = b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateSkipped, result.State)

	require.Equal(t, 1, signaler.callCount())
}

func Test_Resume_RejectedSignalStillDeletesRecord(t *testing.T) {
	ctx := context.Background()

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{
		errs: []error{fmt.Errorf("stale handle: %w", engine.ErrSignalRejected)},
	}
	b := newTestBroker(s, signaler)

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)
	require.True(t, result.SignalRejected)

	// Rejection is terminal, not retried
	require.Equal(t, 1, signaler.callCount())

	// The stale record must not leak
	_, err = s.Get(ctx, "job-42")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Resume_TransientSignalFailureIsRetried(t *testing.T) {
	ctx := context.Background()

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{
		errs: []error{errors.New("connection reset"), errors.New("connection reset")},
	}
	b := newTestBroker(s, signaler)

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)
	require.False(t, result.SignalRejected)

	require.Equal(t, 3, signaler.callCount())

	_, err = s.Get(ctx, "job-42")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Resume_SignalRetriesExhaustedKeepsRecord(t *testing.T) {
	ctx := context.Background()

	transportErr := errors.New("engine unreachable")

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{
		errs: []error{transportErr, transportErr, transportErr, transportErr},
	}
	b := newTestBroker(s, signaler, WithMaxStepRetries(3))

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.Resume(ctx, "job-42")
	require.ErrorIs(t, err, transportErr)
	require.Nil(t, result)

	require.Equal(t, 4, signaler.callCount())

	// The record stays so a redelivered event can drive another attempt
	record, err := s.Get(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, "h1", record.Handle)
}

func Test_Resume_LookupNotFoundIsNotRetried(t *testing.T) {
	ctx := context.Background()

	ms := &store.MockStore{}
	ms.On("Get", mock.Anything, "job-99").Return(nil, store.ErrNotFound)

	b := newTestBroker(ms, &fakeSignaler{})

	result, err := b.Resume(ctx, "job-99")
	require.NoError(t, err)
	require.Equal(t, StateSkipped, result.State)

	ms.AssertNumberOfCalls(t, "Get", 1)
}

func Test_Resume_CleanupFailureAfterSignalIsReported(t *testing.T) {
	ctx := context.Background()

	deleteErr := errors.New("store unreachable")

	ms := &store.MockStore{}
	ms.On("Get", mock.Anything, "job-42").
		Return(core.NewContinuationRecord("job-42", "h1", time.Now().UTC()), nil)
	ms.On("Delete", mock.Anything, "job-42").Return(deleteErr)

	signaler := &fakeSignaler{}
	b := newTestBroker(ms, signaler, WithMaxCleanupRetries(1))

	result, err := b.Resume(ctx, "job-42")
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)
	require.True(t, result.CleanupFailed)

	// The signal is not rolled back
	require.Equal(t, 1, signaler.callCount())

	ms.AssertNumberOfCalls(t, "Delete", 2)
}

func Test_ResumeWithPayload_ForwardsPayload(t *testing.T) {
	ctx := context.Background()

	s := memory.NewMemoryStore()
	signaler := &fakeSignaler{}
	b := newTestBroker(s, signaler)

	require.NoError(t, b.Suspend(ctx, "job-42", "h1"))

	result, err := b.ResumeWithPayload(ctx, "job-42", []byte(`{"output":"s3://bucket/result"}`))
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)

	require.Equal(t, 1, signaler.callCount())
	require.JSONEq(t, `{"output":"s3://bucket/result"}`, string(signaler.calls[0].payload))
}
