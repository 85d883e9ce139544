package transcription

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/sttkit/component"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/provider"
)

// fakeProvider implements Provider for testing.
type fakeProvider struct {
	name       string
	available  bool
	probeDelay time.Duration
	delay      time.Duration
	transcript string
	confidence float64
	err        error

	probes      atomic.Int32
	transcribes atomic.Int32
	canceled    atomic.Bool
	closed      atomic.Bool

	mu      sync.Mutex
	lastReq Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool {
	f.probes.Add(1)
	if f.probeDelay > 0 {
		select {
		case <-time.After(f.probeDelay):
		case <-ctx.Done():
			return false
		}
	}
	return f.available
}

func (f *fakeProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.transcribes.Add(1)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			f.canceled.Store(true)
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Provider: f.name, Transcript: f.transcript, Confidence: f.confidence, DurationMs: 99999}, nil
}

func (f *fakeProvider) Close(ctx context.Context) error {
	f.closed.Store(true)
	return nil
}

func (f *fakeProvider) request() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func newPair() (*fakeProvider, *fakeProvider) {
	return &fakeProvider{name: "streaming", available: true, transcript: "Licht an", confidence: 0.9},
		&fakeProvider{name: "batchHttp", available: true, transcript: "Licht aus", confidence: 0.7}
}

func newTestOrchestrator(t *testing.T, cfg Config, providers ...*fakeProvider) *Orchestrator {
	t.Helper()
	reg := NewRegistry()
	for _, p := range providers {
		reg.Set(p.name, p)
	}
	o, err := NewOrchestrator(cfg, reg, logger.Nop())
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProbeTimeoutMs = 100
	cfg.MaxDurationMs = 500
	return cfg
}

var clip = Request{Audio: []byte("webm"), MimeType: "audio/webm"}

func TestOrchestrator_PrimarySuccess(t *testing.T) {
	primary, secondary := newPair()
	primary.delay = 30 * time.Millisecond
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	start := time.Now()
	res, err := o.Transcribe(context.Background(), clip)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != "streaming" || res.Transcript != "Licht an" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.DurationMs < 30 || res.DurationMs > elapsed {
		t.Errorf("expected orchestrator wall-clock duration in [30, %d], got %d", elapsed, res.DurationMs)
	}
	if res.Language != "de-DE" {
		t.Errorf("expected default language, got %q", res.Language)
	}
	if secondary.probes.Load() != 0 || secondary.transcribes.Load() != 0 {
		t.Error("secondary must not be consulted on primary success")
	}
}

func TestOrchestrator_AppliesDefaults(t *testing.T) {
	primary, secondary := newPair()
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	if _, err := o.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := primary.request()
	if req.Language != "de-DE" || req.MaxDuration != 500*time.Millisecond {
		t.Errorf("expected defaults to be applied, got %+v", req)
	}

	if _, err := o.Transcribe(context.Background(), Request{Audio: clip.Audio, Language: "en-US", MaxDuration: time.Second}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req = primary.request()
	if req.Language != "en-US" || req.MaxDuration != time.Second {
		t.Errorf("expected explicit values to win, got %+v", req)
	}
}

func TestOrchestrator_Failover_Table(t *testing.T) {
	tests := []struct {
		name              string
		setup             func(p *fakeProvider)
		primaryTranscribe int32
	}{
		{
			name:              "probe unavailable",
			setup:             func(p *fakeProvider) { p.available = false },
			primaryTranscribe: 0,
		},
		{
			name:              "probe hangs",
			setup:             func(p *fakeProvider) { p.probeDelay = 5 * time.Second },
			primaryTranscribe: 0,
		},
		{
			name:              "transcribe error",
			setup:             func(p *fakeProvider) { p.err = goerrors.ProviderProtocol("streaming", "closed without result") },
			primaryTranscribe: 1,
		},
		{
			name:              "transcribe timeout",
			setup:             func(p *fakeProvider) { p.delay = 5 * time.Second },
			primaryTranscribe: 1,
		},
		{
			name:              "empty transcript",
			setup:             func(p *fakeProvider) { p.transcript = "  " },
			primaryTranscribe: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary, secondary := newPair()
			tt.setup(primary)
			o := newTestOrchestrator(t, testConfig(), primary, secondary)

			start := time.Now()
			res, err := o.Transcribe(context.Background(), clip)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Provider != "batchHttp" {
				t.Errorf("expected secondary result, got %q", res.Provider)
			}
			if got := primary.transcribes.Load(); got != tt.primaryTranscribe {
				t.Errorf("expected %d primary transcribe calls, got %d", tt.primaryTranscribe, got)
			}
			if time.Since(start) > 2*time.Second {
				t.Errorf("failover blocked on primary: %s", time.Since(start))
			}
		})
	}
}

func TestOrchestrator_TimeoutCancelsLoser(t *testing.T) {
	primary, secondary := newPair()
	primary.delay = 5 * time.Second
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	if _, err := o.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !primary.canceled.Load() {
		if time.Now().After(deadline) {
			t.Fatal("timed-out provider was not cancelled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOrchestrator_AllUnavailable(t *testing.T) {
	primary, secondary := newPair()
	primary.available = false
	secondary.available = false
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	res, err := o.Transcribe(context.Background(), clip)
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	appErr, ok := goerrors.AsAppError(err)
	if !ok || appErr.Code != goerrors.ErrCodeAllProvidersFailed {
		t.Fatalf("expected ALL_PROVIDERS_FAILED, got %v", err)
	}
	if appErr.Message != "All STT providers failed or unavailable" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if !goerrors.HasCode(err, goerrors.ErrCodeProviderUnavailable) {
		t.Error("expected provider failures in the cause chain")
	}
	if primary.transcribes.Load() != 0 || secondary.transcribes.Load() != 0 {
		t.Error("no provider should have been asked to transcribe")
	}
}

func TestOrchestrator_SecondaryNone(t *testing.T) {
	primary, secondary := newPair()
	primary.err = errors.New("boom")
	cfg := testConfig()
	cfg.Secondary = ProviderNone
	o := newTestOrchestrator(t, cfg, primary, secondary)

	_, err := o.Transcribe(context.Background(), clip)
	if !goerrors.HasCode(err, goerrors.ErrCodeAllProvidersFailed) {
		t.Fatalf("expected ALL_PROVIDERS_FAILED, got %v", err)
	}
	if secondary.probes.Load() != 0 {
		t.Error("secondary must be skipped when set to none")
	}
}

func TestOrchestrator_CallerCanceled(t *testing.T) {
	primary, secondary := newPair()
	primary.delay = 5 * time.Second
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := o.Transcribe(ctx, Request{Audio: clip.Audio, MaxDuration: 10 * time.Second})
	if !goerrors.HasCode(err, goerrors.ErrCodeAllProvidersFailed) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if secondary.transcribes.Load() != 0 {
		t.Error("secondary must not run after the caller gave up")
	}
}

func TestOrchestrator_Disabled(t *testing.T) {
	primary, secondary := newPair()
	cfg := testConfig()
	cfg.Enabled = false
	o := newTestOrchestrator(t, cfg, primary, secondary)

	_, err := o.Transcribe(context.Background(), clip)
	if !goerrors.HasCode(err, goerrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	status := o.ProvidersStatus(context.Background())
	if len(status) != 2 || status["streaming"] || status["batchHttp"] {
		t.Errorf("expected all-false status, got %v", status)
	}
	if primary.probes.Load() != 0 || secondary.probes.Load() != 0 {
		t.Error("disabled orchestrator must not probe")
	}
}

func TestOrchestrator_EmptyAudio(t *testing.T) {
	primary, secondary := newPair()
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	_, err := o.Transcribe(context.Background(), Request{MimeType: "audio/webm"})
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidAudio) {
		t.Fatalf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestOrchestrator_ClampsConfidence(t *testing.T) {
	primary, secondary := newPair()
	primary.confidence = 1.7
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	res, err := o.Transcribe(context.Background(), clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %v", res.Confidence)
	}
}

func TestOrchestrator_ProvidersStatus(t *testing.T) {
	primary, secondary := newPair()
	secondary.available = false
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	first := o.ProvidersStatus(context.Background())
	second := o.ProvidersStatus(context.Background())
	for _, status := range []map[string]bool{first, second} {
		if !status["streaming"] || status["batchHttp"] || len(status) != 2 {
			t.Errorf("unexpected status %v", status)
		}
	}
	if primary.transcribes.Load() != 0 {
		t.Error("status must not transcribe")
	}
}

func TestOrchestrator_Health_Table(t *testing.T) {
	tests := []struct {
		name      string
		primary   bool
		secondary bool
		want      component.HealthStatus
	}{
		{"both up", true, true, component.StatusHealthy},
		{"one down", true, false, component.StatusDegraded},
		{"both down", false, false, component.StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary, secondary := newPair()
			primary.available, secondary.available = tt.primary, tt.secondary
			o := newTestOrchestrator(t, testConfig(), primary, secondary)
			if got := o.Health(context.Background()).Status; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOrchestrator_StopClosesProviders(t *testing.T) {
	primary, secondary := newPair()
	o := newTestOrchestrator(t, testConfig(), primary, secondary)
	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !primary.closed.Load() || !secondary.closed.Load() {
		t.Error("expected every provider to be closed")
	}
}

func TestNewOrchestrator_UnknownProvider(t *testing.T) {
	primary, _ := newPair()
	reg := NewRegistry()
	reg.Set(primary.name, primary)

	if _, err := NewOrchestrator(testConfig(), reg, logger.Nop()); err == nil {
		t.Fatal("expected error for unregistered secondary")
	}
}

func TestOrchestrator_WithMiddleware(t *testing.T) {
	primary, secondary := newPair()
	reg := NewRegistry()
	reg.Set(primary.name, primary)
	reg.Set(secondary.name, secondary)

	var seen atomic.Int32
	counting := func(inner Provider) Provider {
		return &countingProvider{Provider: inner, n: &seen}
	}
	o, err := NewOrchestrator(testConfig(), reg, logger.Nop(), WithMiddleware(counting))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	if _, err := o.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Load() != 1 {
		t.Errorf("expected middleware to see 1 call, got %d", seen.Load())
	}
}

type countingProvider struct {
	Provider
	n *atomic.Int32
}

func (c *countingProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	c.n.Add(1)
	return c.Provider.Transcribe(ctx, req)
}

var _ provider.Closeable = (*fakeProvider)(nil)

func TestOrchestrator_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	primary, secondary := newPair()
	primary.err = goerrors.ProviderProtocol("streaming", "closed without result")
	o := newTestOrchestrator(t, testConfig(), primary, secondary)

	if _, err := o.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type seen struct {
		provider  string
		errorCode string
		failed    bool
	}
	byName := map[string][]seen{}
	for _, s := range exporter.GetSpans() {
		var got seen
		for _, kv := range s.Attributes {
			switch string(kv.Key) {
			case observability.AttrProvider:
				got.provider = kv.Value.AsString()
			case observability.AttrErrorCode:
				got.errorCode = kv.Value.AsString()
			}
		}
		got.failed = s.Status.Code == codes.Error
		byName[s.Name] = append(byName[s.Name], got)
	}

	attempts := byName[observability.SpanAttempt]
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempt spans, got %v", byName)
	}
	if a := attempts[0]; a.provider != "streaming" || !a.failed || a.errorCode != string(goerrors.ErrCodeProviderProtocol) {
		t.Errorf("primary attempt = %+v", a)
	}
	if a := attempts[1]; a.provider != "batchHttp" || a.failed {
		t.Errorf("secondary attempt = %+v", a)
	}
	top := byName[observability.SpanTranscribe]
	if len(top) != 1 || top[0].provider != "batchHttp" || top[0].failed {
		t.Errorf("transcribe span = %+v", top)
	}
}
