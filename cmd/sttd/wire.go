package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/sttkit/api"
	"github.com/kbukum/sttkit/audio"
	"github.com/kbukum/sttkit/bootstrap"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/natsapi"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/server"
	"github.com/kbukum/sttkit/transcription"
	"github.com/kbukum/sttkit/transcription/batchhttp"
	"github.com/kbukum/sttkit/transcription/streaming"
)

// daemon holds the wired parts the run modes need.
type daemon struct {
	orchestrator *transcription.Orchestrator
	validator    *audio.Converter
	metrics      *observability.Metrics
	scrape       http.Handler
}

// wire builds telemetry, the converter, the engines and the orchestrator,
// and registers them with app. serve adds the HTTP and NATS surfaces.
func wire(ctx context.Context, app *bootstrap.App[*Config], serve bool) (*daemon, error) {
	cfg := app.Cfg
	log := app.Logger
	d := &daemon{}

	if err := setupTelemetry(ctx, app, d); err != nil {
		return nil, err
	}

	conv, err := audio.NewConverter(cfg.Audio, log)
	if err != nil {
		return nil, err
	}
	if conv.Available() {
		d.validator = conv
	} else {
		log.Warn("ffmpeg/ffprobe not found, audio pre-flight disabled", logger.Fields(
			"ffmpeg", cfg.Audio.FFmpegCommand,
			"ffprobe", cfg.Audio.FFprobeCommand,
		))
	}

	reg := transcription.NewRegistry()
	reg.RegisterFactory(streaming.ProviderName, streaming.Factory(conv, log))
	reg.RegisterFactory(batchhttp.ProviderName, batchhttp.Factory(log))

	sections := map[string]any{
		streaming.ProviderName: cfg.STT.Streaming,
		batchhttp.ProviderName: cfg.STT.BatchHTTP,
	}
	for _, name := range cfg.STT.engines() {
		m, err := toMap(sections[name])
		if err != nil {
			return nil, err
		}
		if _, err := reg.Initialize(name, m); err != nil {
			return nil, fmt.Errorf("stt: %s: %w", name, err)
		}
	}

	d.orchestrator, err = transcription.NewOrchestrator(cfg.STT.Config, reg, log,
		transcription.WithMetricsRecorder(d.metrics))
	if err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(d.orchestrator); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(audio.NewJanitor(conv)); err != nil {
		return nil, err
	}

	if !serve {
		return d, nil
	}
	return d, wireSurfaces(app, d)
}

// wireSurfaces registers the HTTP server and, when enabled, the NATS service.
func wireSurfaces(app *bootstrap.App[*Config], d *daemon) error {
	cfg := app.Cfg
	maxDuration := cfg.STT.MaxDuration()

	var validator api.AudioValidator
	if d.validator != nil {
		validator = d.validator
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyMiddleware(d.metrics)
	srv.RegisterDefaultEndpoints(cfg.Name, cfg.Version, app.Components.HealthAll, d.scrape)
	api.NewHandler(d.orchestrator, validator, maxDuration, app.Logger).
		Register(srv.GinEngine(), srv.RateLimit())
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	app.OnReady(func(context.Context) error {
		srv.TrackRoutes(app.Summary)
		return nil
	})

	if !cfg.NATS.Enabled {
		return nil
	}
	opts := []natsapi.Option{natsapi.WithMetrics(d.metrics)}
	if validator != nil {
		opts = append(opts, natsapi.WithValidator(validator))
	}
	return app.RegisterComponent(natsapi.NewService(cfg.NATS, d.orchestrator, maxDuration, app.Logger, opts...))
}

// setupTelemetry installs the meter and tracer providers and schedules
// their shutdown.
func setupTelemetry(ctx context.Context, app *bootstrap.App[*Config], d *daemon) error {
	tel := app.Cfg.Telemetry

	if tel.Metrics.Enabled {
		mc := tel.Metrics.MeterConfig
		switch mc.Exporter {
		case observability.ExporterOTLP:
			mp, err := observability.InitMeter(ctx, &mc)
			if err != nil {
				return err
			}
			app.OnStop(mp.Shutdown)
		default:
			mp, scrape, err := observability.InitPrometheusMeter(&mc)
			if err != nil {
				return err
			}
			d.scrape = scrape
			app.OnStop(mp.Shutdown)
		}

		m, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			return fmt.Errorf("creating metrics: %w", err)
		}
		d.metrics = m
	}

	if tel.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    app.Cfg.Name,
			ServiceVersion: app.Cfg.Version,
			Environment:    app.Cfg.Environment,
			Endpoint:       tel.Tracing.Endpoint,
			Insecure:       tel.Tracing.Insecure,
			SampleRate:     tel.Tracing.SampleRate,
		})
		if err != nil {
			return err
		}
		app.OnStop(tp.Shutdown)
	}
	return nil
}

// toMap turns an engine config section into the map its factory decodes.
func toMap(section any) (map[string]any, error) {
	var m map[string]any
	if err := mapstructure.Decode(section, &m); err != nil {
		return nil, fmt.Errorf("encode engine config: %w", err)
	}
	return m, nil
}
