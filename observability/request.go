package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Surfaces a transcription request can arrive on.
const (
	SurfaceHTTP = "http"
	SurfaceNATS = "nats"
)

// Request follows one inbound call from arrival to reply. It owns the
// "<surface>.request" span and the request metrics; handlers add the clip
// and the outcome as they learn them.
type Request struct {
	Surface   string
	Operation string
	RequestID string

	started time.Time
	metrics *Metrics
	span    trace.Span
}

type requestKey struct{}

// StartRequest opens the request span, counts the request in flight and
// stores the Request in the returned context. metrics may be nil.
func StartRequest(ctx context.Context, metrics *Metrics, surface, operation, requestID string) (context.Context, *Request) {
	ctx, span := StartSpan(ctx, surface+".request",
		attribute.String(AttrSurface, surface),
		attribute.String(AttrOperation, operation),
		attribute.String(AttrRequestID, requestID),
	)
	r := &Request{
		Surface:   surface,
		Operation: operation,
		RequestID: requestID,
		started:   time.Now(),
		metrics:   metrics,
		span:      span,
	}
	metrics.RecordRequestStart(ctx)
	return context.WithValue(ctx, requestKey{}, r), r
}

// RequestFromContext returns the Request started for ctx, or nil.
func RequestFromContext(ctx context.Context) *Request {
	r, _ := ctx.Value(requestKey{}).(*Request)
	return r
}

// Clip records the uploaded audio on the request span. A nil Request is a
// no-op, so handlers can call it whether or not tracing middleware ran.
func (r *Request) Clip(mimeType string, audioBytes int, language string) {
	if r == nil {
		return
	}
	r.span.SetAttributes(ClipAttributes(mimeType, audioBytes, language)...)
}

// Elapsed is the time since the request arrived.
func (r *Request) Elapsed() time.Duration {
	return time.Since(r.started)
}

// End closes the span and records the request under status. A non-nil err
// also fails the span and counts its error code against the surface.
func (r *Request) End(ctx context.Context, status string, err error) {
	elapsed := r.Elapsed()
	if err != nil {
		markFailed(r.span, err)
		r.metrics.RecordError(ctx, ErrorCode(err), r.Surface)
	}
	r.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	r.span.End()
	r.metrics.RecordRequestEnd(ctx, r.Surface, r.Operation, status, elapsed)
}
