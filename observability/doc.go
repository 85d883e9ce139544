// Package observability provides OpenTelemetry tracing and metrics for the
// transcription service.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
//		ServiceName: "sttd",
//		Endpoint:    "localhost:4318",
//		Insecure:    true,
//		SampleRate:  1,
//	})
//	defer tp.Shutdown(ctx)
//
// Every inbound call is wrapped in a Request, which owns the request span:
//
//	ctx, req := observability.StartRequest(ctx, metrics, observability.SurfaceHTTP, "POST /v1/transcribe", id)
//	req.Clip("audio/webm", len(audio), "en")
//	req.End(ctx, observability.StatusOK, nil)
//
// Metrics are scraped by Prometheus or pushed over OTLP:
//
//	cfg := observability.DefaultMeterConfig("sttd")
//	mp, handler, err := observability.InitPrometheusMeter(&cfg)
//	metrics, err := observability.NewMetrics(observability.Meter("sttd"))
//	metrics.RecordAttempt(ctx, "streaming", observability.StatusOK, elapsed)
//
// A nil *Metrics is valid and records nothing.
package observability
