package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"ballotforge/internal/config"
)

const instrumentationName = "ballotforge"

// ShutdownFunc flushes and stops the installed provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider exporting spans as JSON lines to w.
// A nil writer leaves the default no-op provider in place.
func Setup(serviceName, serviceVersion string, w io.Writer) (ShutdownFunc, error) {
	if w == nil {
		return noopShutdown, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// SetupFromConfig honours the [tracing] section. Spans go to stdout unless an
// output path is configured.
func SetupFromConfig(cfg *config.Config, version string) (ShutdownFunc, error) {
	if cfg == nil || !cfg.Tracing.Enabled {
		return noopShutdown, nil
	}
	if cfg.Tracing.OutputPath == "" {
		return Setup(instrumentationName, version, os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Tracing.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Tracing.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	shutdown, err := Setup(instrumentationName, version, file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		return err
	}, nil
}

// Span wraps an OpenTelemetry span so callers do not import the upstream packages.
type Span struct {
	span trace.Span
}

// StartSpan starts an internal child span.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &Span{span: span}
}

// WithAttributes attaches string attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	s.span.SetAttributes(kvs...)
	return s
}

// SetCount records an integer attribute such as a prop or document count.
func (s *Span) SetCount(key string, value int) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int(key, value))
}

// End records err (if any) as the span status and finishes the span.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
