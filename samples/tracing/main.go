package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	redisclient "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"

	"github.com/waitpoint/waitpoint/broker"
	"github.com/waitpoint/waitpoint/store/redis"
)

type consoleSignaler struct{}

func (consoleSignaler) Signal(ctx context.Context, handle string, payload []byte) error {
	fmt.Printf("engine: resuming execution %s with payload %s\n", handle, payload)
	return nil
}

func main() {
	ctx := context.Background()

	r := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("waitpoint sample"),
		semconv.ServiceVersionKey.String("v0.1.0"),
		attribute.String("environment", "sample"),
	)

	stdoutexp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		panic(err)
	}

	oclient := otlptracehttp.NewClient(otlptracehttp.WithEndpoint("localhost:4318"), otlptracehttp.WithInsecure())
	exp, err := otlptrace.New(ctx, oclient)
	if err != nil {
		panic(err)
	}

	tp := trace.NewTracerProvider(
		trace.WithSyncer(stdoutexp),
		trace.WithBatcher(exp),
		trace.WithResource(r),
	)

	otel.SetTracerProvider(tp)

	rdb := redisclient.NewUniversalClient(&redisclient.UniversalOptions{
		Addrs:    []string{"localhost:6379"},
		Password: "RedisPassw0rd",
	})

	s := redis.NewRedisStore(rdb)

	b := broker.New(s, consoleSignaler{}, broker.WithTracerProvider(tp))

	if err := b.Suspend(ctx, "job-42", uuid.NewString()); err != nil {
		panic(err)
	}

	if _, err := b.Resume(ctx, "job-42"); err != nil {
		panic(err)
	}

	if err := tp.Shutdown(context.Background()); err != nil {
		panic(err)
	}
}
