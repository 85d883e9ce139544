package transcription

import (
	"context"
	"time"

	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/observability"
)

// Middleware wraps a Provider with cross-cutting behavior.
type Middleware func(Provider) Provider

// Chain composes middlewares; the first is outermost.
//
// Chain(a, b, c)(p) is equivalent to a(b(c(p))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Provider) Provider {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// WithLogging logs each Transcribe call with its duration and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Provider) Provider {
		return &loggingProvider{inner: inner, log: log}
	}
}

type loggingProvider struct {
	inner Provider
	log   *logger.Logger
}

func (l *loggingProvider) Name() string                         { return l.inner.Name() }
func (l *loggingProvider) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := l.inner.Transcribe(ctx, req)

	fields := logger.Fields(
		logger.FieldProvider, l.inner.Name(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
		logger.FieldMimeType, req.MimeType,
		logger.FieldBytes, len(req.Audio),
	)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		l.log.WithContext(ctx).Warn("transcription failed", fields)
	} else {
		l.log.WithContext(ctx).Debug("transcription ok", fields)
	}
	return res, err
}

// WithTracing opens an stt.attempt span, tagged with the engine name, around
// each Transcribe call.
func WithTracing() Middleware {
	return func(inner Provider) Provider {
		return &tracingProvider{inner: inner}
	}
}

type tracingProvider struct {
	inner Provider
}

func (t *tracingProvider) Name() string                         { return t.inner.Name() }
func (t *tracingProvider) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	attrs := append(observability.ClipAttributes(req.MimeType, len(req.Audio), req.Language),
		observability.Provider(t.inner.Name()))
	ctx, span := observability.StartSpan(ctx, observability.SpanAttempt, attrs...)
	defer span.End()

	res, err := t.inner.Transcribe(ctx, req)
	if err != nil {
		observability.Fail(ctx, err)
	}
	return res, err
}

// WithMetrics records the attempt counter and duration histogram.
func WithMetrics(m *observability.Metrics) Middleware {
	return func(inner Provider) Provider {
		return &metricsProvider{inner: inner, metrics: m}
	}
}

type metricsProvider struct {
	inner   Provider
	metrics *observability.Metrics
}

func (m *metricsProvider) Name() string                         { return m.inner.Name() }
func (m *metricsProvider) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := m.inner.Transcribe(ctx, req)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}
	m.metrics.RecordAttempt(ctx, m.inner.Name(), status, time.Since(start))
	return res, err
}
