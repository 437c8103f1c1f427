package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/waitpoint/waitpoint/broker"
	"github.com/waitpoint/waitpoint/listener"
	"github.com/waitpoint/waitpoint/store/memory"
)

// consoleSignaler stands in for the workflow engine's resume-by-handle API.
type consoleSignaler struct{}

func (consoleSignaler) Signal(ctx context.Context, handle string, payload []byte) error {
	fmt.Printf("engine: resuming execution %s with payload %s\n", handle, payload)
	return nil
}

type chanSubscription struct {
	events chan *listener.Event
}

func (cs *chanSubscription) Subscribe(ctx context.Context, handler func(ctx context.Context, event *listener.Event) error) error {
	for event := range cs.events {
		_ = handler(ctx, event)
	}

	return nil
}

func main() {
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	s := memory.NewMemoryStore()
	b := broker.New(s, consoleSignaler{})

	// An execution reaches its pause point. The engine hands over the job id
	// and the continuation handle for the suspended execution.
	handle := uuid.NewString()
	if err := b.Suspend(ctx, "job-42", handle); err != nil {
		panic(err)
	}

	l, err := listener.New(b, listener.Predicate{
		Source: "thirdparty.jobs",
		Types:  []string{"JobCompleted"},
		Fields: map[string]any{"status": "SUCCEEDED"},
	}, "jobId")
	if err != nil {
		panic(err)
	}

	// The third-party job finishes and a completion event arrives
	payload, _ := json.Marshal(map[string]any{
		"jobId":  "job-42",
		"status": "SUCCEEDED",
	})

	events := make(chan *listener.Event, 1)
	events <- &listener.Event{
		ID:      uuid.NewString(),
		Source:  "thirdparty.jobs",
		Type:    "JobCompleted",
		Payload: payload,
	}
	close(events)

	if err := l.Run(ctx, &chanSubscription{events: events}); err != nil {
		panic(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		panic(err)
	}

	fmt.Printf("pending continuations: %d\n", stats.PendingContinuations)
}
