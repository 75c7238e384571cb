package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	attrAction        = attribute.Key("computeruse.action")
	attrCallID        = attribute.Key("computeruse.call_id")
	attrDisplayWidth  = attribute.Key("display.width")
	attrDisplayHeight = attribute.Key("display.height")
	attrProcessTool   = attribute.Key("process.tool")
	attrProcessArgc   = attribute.Key("process.argc")
)

// Tracer emits one span per dispatched action and one child span per helper
// process.
//
// Usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName: "computex",
//	    Endpoint:    "localhost:4317",
//	})
//	defer shutdown(context.Background())
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TraceConfig configures span export.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address. When empty, spans are
	// created on the global provider and never exported.
	Endpoint string

	// SamplingRate is the fraction of actions traced. Zero means 1.0.
	SamplingRate float64

	Attributes     map[string]string
	EnableInsecure bool
}

// NewTracer builds a tracer and the shutdown func that flushes it. Exporter
// setup failures fall back to the non-exporting tracer.
func NewTracer(config TraceConfig) (*Tracer, func(context.Context) error) {
	if config.ServiceName == "" {
		config.ServiceName = "computex"
	}
	noop := func(context.Context) error { return nil }
	fallback := &Tracer{tracer: otel.Tracer(config.ServiceName), serviceName: config.ServiceName}
	if config.Endpoint == "" {
		return fallback, noop
	}

	provider, err := newExportingProvider(config)
	if err != nil {
		return fallback, noop
	}
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return NewTracerFromProvider(provider, config.ServiceName), provider.Shutdown
}

func newExportingProvider(config TraceConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
	if config.EnableInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	}
	for k, v := range config.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(config.SamplingRate)),
	), nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate == 0 || rate >= 1:
		return sdktrace.AlwaysSample()
	case rate < 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// NewTracerFromProvider builds a tracer on an existing provider, typically
// an in-memory one in tests.
func NewTracerFromProvider(provider trace.TracerProvider, name string) *Tracer {
	return &Tracer{tracer: provider.Tracer(name), serviceName: name}
}

// TraceAction starts the span for one computer-use action.
func (t *Tracer) TraceAction(ctx context.Context, action, callID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "computeruse."+action,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrAction.String(action), attrCallID.String(callID)),
	)
}

// TraceProcess starts a child span for one helper invocation.
func (t *Tracer) TraceProcess(ctx context.Context, tool string, argc int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "process."+tool,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrProcessTool.String(tool), attrProcessArgc.Int(argc)),
	)
}

// RecordGeometry annotates span with the display size an action scaled to.
func (t *Tracer) RecordGeometry(span trace.Span, width, height int) {
	span.SetAttributes(attrDisplayWidth.Int(width), attrDisplayHeight.Int(height))
}

// RecordError marks span failed. A nil error is ignored.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the active trace ID, or "" outside a span.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
