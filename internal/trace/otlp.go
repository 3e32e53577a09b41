package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// OTLPExporter exports completed spans to an OTLP endpoint
type OTLPExporter struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
	enabled  bool
}

// NewOTLPExporter creates an OTLP exporter if OTEL_EXPORTER_OTLP_ENDPOINT is set
// Returns nil if endpoint not configured (disabled)
func NewOTLPExporter(ctx context.Context) (*OTLPExporter, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return nil, nil // Disabled
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // For local dev; make configurable
	)
	if err != nil {
		return nil, err
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = "taskdeck"
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &OTLPExporter{
		provider: provider,
		tracer:   provider.Tracer("taskdeck/ops"),
		enabled:  true,
	}, nil
}

// ExportSpan exports a completed operation span with its measured timestamps
func (e *OTLPExporter) ExportSpan(ctx context.Context, span OpSpan) error {
	if e == nil || !e.enabled {
		return nil
	}

	_, otlpSpan := e.tracer.Start(ctx, span.Name, oteltrace.WithTimestamp(span.Start))

	attrs := make([]attribute.KeyValue, 0, len(span.Detail)+2)
	attrs = append(attrs, attribute.String("taskdeck.op.id", span.ID))
	if span.Scope != "" {
		attrs = append(attrs, attribute.String("taskdeck.scope", span.Scope))
	}
	for k, v := range span.Detail {
		attrs = append(attrs, attribute.String("taskdeck."+k, v))
	}
	otlpSpan.SetAttributes(attrs...)

	otlpSpan.End(oteltrace.WithTimestamp(span.End))
	return nil
}

// Shutdown flushes and closes the exporter
func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.provider.Shutdown(ctx)
}
