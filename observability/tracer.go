package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
)

const instrumentation = "github.com/kbukum/sttkit"

// Span names.
const (
	SpanTranscribe = "stt.transcribe"
	SpanAttempt    = "stt.attempt"
)

// Attribute keys.
const (
	AttrSurface    = "stt.surface"
	AttrOperation  = "stt.operation"
	AttrRequestID  = "request.id"
	AttrStatus     = "status"
	AttrDurationMs = "duration_ms"
	AttrErrorCode  = "error.code"
	AttrProvider   = "stt.provider"
	AttrLanguage   = "stt.language"
	AttrMimeType   = "stt.mime_type"
	AttrAudioBytes = "stt.audio_bytes"
)

// TracerConfig selects OTLP/HTTP trace export.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint   string
	Insecure   bool
	SampleRate float64
}

// InitTracer installs a batching OTLP tracer provider and the W3C
// propagators. The caller shuts the provider down on exit.
func InitTracer(ctx context.Context, cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.WithComponent("observability").Info("trace export enabled", logger.Fields(
		logger.FieldEndpoint, cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(environment),
		),
	)
}

// StartSpan starts a span on the service tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, trace.WithAttributes(attrs...))
}

// Annotate adds attrs to the recording span in ctx.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// ClipAttributes describe the audio a span works on. Empty values are left out.
func ClipAttributes(mimeType string, audioBytes int, language string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int(AttrAudioBytes, audioBytes)}
	if mimeType != "" {
		attrs = append(attrs, attribute.String(AttrMimeType, mimeType))
	}
	if language != "" {
		attrs = append(attrs, attribute.String(AttrLanguage, language))
	}
	return attrs
}

// Provider tags the engine that produced or failed a result.
func Provider(name string) attribute.KeyValue {
	return attribute.String(AttrProvider, name)
}

// Fail marks the span in ctx as failed with err.
func Fail(ctx context.Context, err error) {
	markFailed(trace.SpanFromContext(ctx), err)
}

func markFailed(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(AttrErrorCode, ErrorCode(err)))
}

// ErrorCode is the application error code carried by err, INTERNAL_ERROR
// for anything else.
func ErrorCode(err error) string {
	if appErr, ok := goerrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(goerrors.ErrCodeInternal)
}
