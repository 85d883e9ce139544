package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/sttkit/component"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/provider"
)

// Orchestrator runs a transcription against the primary engine and falls
// over to the secondary. The engine set is resolved once in NewOrchestrator
// and never changes afterwards.
type Orchestrator struct {
	cfg     Config
	order   []Provider
	all     []Provider
	raw     []Provider
	log     *logger.Logger
	metrics *observability.Metrics
	extra   []Middleware
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetricsRecorder records attempt, failover and latency metrics.
func WithMetricsRecorder(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithMiddleware wraps every engine with mw, inside the built-in logging,
// tracing and metrics layers.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *Orchestrator) { o.extra = append(o.extra, mw...) }
}

var _ component.Component = (*Orchestrator)(nil)

// NewOrchestrator resolves cfg.Primary and cfg.Secondary against reg.
// Every name must already be initialized in reg.
func NewOrchestrator(cfg Config, reg *provider.Registry[Provider], log *logger.Logger, opts ...Option) (*Orchestrator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get("stt")
	}

	o := &Orchestrator{cfg: cfg, log: log.WithComponent("stt-orchestrator")}
	for _, opt := range opts {
		opt(o)
	}

	wrap := Chain(append([]Middleware{
		WithLogging(o.log),
		WithTracing(),
		WithMetrics(o.metrics),
	}, o.extra...)...)

	for _, name := range reg.Instances() {
		p, _ := reg.Get(name)
		o.raw = append(o.raw, p)
		o.all = append(o.all, wrap(p))
	}
	for _, name := range cfg.order() {
		p, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("stt: provider %q is not registered (have %s)", name, strings.Join(reg.Instances(), ", "))
		}
		o.order = append(o.order, wrap(p))
	}

	o.log.Info("orchestrator ready", logger.Fields(
		"enabled", cfg.Enabled,
		"order", cfg.order(),
		logger.FieldLanguage, cfg.Language,
	))
	return o, nil
}

// Config returns the resolved configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Transcribe tries each configured engine in order. Each engine is probed
// under the probe deadline and, if available, raced against req.MaxDuration.
// The first success is returned with DurationMs set to the wall-clock time
// of the whole call. When every engine fails the error carries
// ErrCodeAllProvidersFailed.
func (o *Orchestrator) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if !o.cfg.Enabled {
		return nil, goerrors.ServiceUnavailable("speech-to-text")
	}
	if len(req.Audio) == 0 {
		return nil, goerrors.InvalidAudio("audio buffer is empty")
	}
	if req.Language == "" {
		req.Language = o.cfg.Language
	}
	if req.MaxDuration <= 0 {
		req.MaxDuration = o.cfg.MaxDuration()
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe,
		observability.ClipAttributes(req.MimeType, len(req.Audio), req.Language)...)
	defer span.End()
	log := o.log.WithContext(ctx)

	var errs []error
	for i, p := range o.order {
		if i > 0 {
			o.metrics.RecordFailover(ctx, o.order[i-1].Name())
			log.Warn("failing over", logger.Fields(
				logger.FieldProvider, p.Name(),
				"from", o.order[i-1].Name(),
			))
		}

		res, err := o.attempt(ctx, p, req)
		if err == nil {
			res.Provider = p.Name()
			res.Confidence = clampConfidence(res.Confidence)
			if res.Language == "" {
				res.Language = req.Language
			}
			res.DurationMs = time.Since(start).Milliseconds()

			o.metrics.RecordTranscription(ctx, p.Name(), observability.StatusOK, time.Since(start))
			observability.Annotate(ctx, observability.Provider(p.Name()))
			return res, nil
		}

		errs = append(errs, err)
		log.Warn("provider failed", logger.Fields(
			logger.FieldProvider, p.Name(),
			logger.FieldAttempt, i+1,
			logger.FieldError, err.Error(),
		))
		if ctx.Err() != nil {
			break
		}
	}

	o.metrics.RecordTranscription(ctx, "", observability.StatusError, time.Since(start))
	terminal := goerrors.AllProvidersFailed().WithCause(errors.Join(errs...))
	observability.Fail(ctx, terminal)
	log.Error("transcription failed", logger.DurationFields("transcribe", time.Since(start)))
	return nil, terminal
}

// attempt probes p and, if it answers, runs one transcription.
func (o *Orchestrator) attempt(ctx context.Context, p Provider, req Request) (*Result, error) {
	probeStart := time.Now()
	if !provider.Probe(ctx, p, o.cfg.ProbeTimeout()) {
		o.metrics.RecordAttempt(ctx, p.Name(), observability.StatusUnavailable, time.Since(probeStart))
		return nil, goerrors.ProviderUnavailable(p.Name())
	}

	res, err := provider.Race(ctx, req.MaxDuration, func(ctx context.Context) (*Result, error) {
		return p.Transcribe(ctx, req)
	})
	switch {
	case errors.Is(err, provider.ErrDeadline):
		return nil, goerrors.ProviderTimeout(p.Name(), req.MaxDuration)
	case err != nil:
		return nil, err
	case res == nil || strings.TrimSpace(res.Transcript) == "":
		return nil, goerrors.ProviderProtocol(p.Name(), "empty transcript")
	}
	return res, nil
}

// ProvidersStatus probes every registered engine concurrently. The map is
// all false without probing when the orchestrator is disabled.
func (o *Orchestrator) ProvidersStatus(ctx context.Context) map[string]bool {
	if !o.cfg.Enabled {
		status := make(map[string]bool, len(o.all))
		for _, p := range o.all {
			status[p.Name()] = false
		}
		return status
	}
	return provider.ProbeAll(ctx, o.all, o.cfg.ProbeTimeout())
}

// Name implements component.Component.
func (o *Orchestrator) Name() string { return "stt" }

// Start initializes engines that need setup.
func (o *Orchestrator) Start(ctx context.Context) error {
	for _, p := range o.raw {
		if ip, ok := p.(provider.Initializable); ok {
			if err := ip.Init(ctx); err != nil {
				return fmt.Errorf("stt: init %s: %w", p.Name(), err)
			}
		}
	}
	return nil
}

// Stop releases engine resources.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var errs []error
	for _, p := range o.raw {
		if c, ok := p.(provider.Closeable); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Health is degraded when a configured engine is unavailable and unhealthy
// when none is.
func (o *Orchestrator) Health(ctx context.Context) component.Health {
	h := component.Health{Name: o.Name(), Status: component.StatusHealthy}
	if !o.cfg.Enabled {
		h.Status = component.StatusDegraded
		h.Message = "disabled"
		return h
	}

	h.Details = o.ProvidersStatus(ctx)
	up := 0
	for _, p := range o.order {
		if h.Details[p.Name()] {
			up++
		}
	}
	switch {
	case up == 0:
		h.Status = component.StatusUnhealthy
		h.Message = "no provider available"
	case up < len(o.order):
		h.Status = component.StatusDegraded
		h.Message = "running without failover"
	}
	return h
}
