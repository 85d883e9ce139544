package main

import (
	"fmt"

	"github.com/kbukum/sttkit/audio"
	"github.com/kbukum/sttkit/config"
	"github.com/kbukum/sttkit/natsapi"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/server"
	"github.com/kbukum/sttkit/transcription"
	"github.com/kbukum/sttkit/transcription/batchhttp"
	"github.com/kbukum/sttkit/transcription/streaming"
	"github.com/kbukum/sttkit/validation"
)

const serviceName = "sttd"

// Config is the daemon configuration, loaded from config.yml, .env and the
// environment (STT_PRIMARY=batchHttp, SERVER_PORT=9090, ...).
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config   `yaml:"server" mapstructure:"server"`
	STT       STTConfig       `yaml:"stt" mapstructure:"stt"`
	Audio     audio.Config    `yaml:"audio" mapstructure:"audio"`
	NATS      natsapi.Config  `yaml:"nats" mapstructure:"nats"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// STTConfig is the orchestrator section with one sub-section per engine.
type STTConfig struct {
	transcription.Config `yaml:",inline" mapstructure:",squash"`

	Streaming streaming.Config `yaml:"streaming" mapstructure:"streaming"`
	BatchHTTP batchhttp.Config `yaml:"batch_http" mapstructure:"batch_http"`
}

// TelemetryConfig selects metric and trace export.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// MetricsConfig enables the meter provider. The prometheus exporter serves
// /metrics; otlp pushes to Endpoint.
type MetricsConfig struct {
	Enabled                   bool `yaml:"enabled" mapstructure:"enabled"`
	observability.MeterConfig `yaml:",inline" mapstructure:",squash"`
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// defaultConfig is the base the loader unmarshals onto, so boolean switches
// that default to on survive an absent key.
func defaultConfig() *Config {
	return &Config{
		ServiceConfig: config.ServiceConfig{Name: serviceName},
		STT:           STTConfig{Config: transcription.DefaultConfig()},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true, MeterConfig: observability.DefaultMeterConfig(serviceName)},
		},
	}
}

// ApplyDefaults fills in zero values in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.STT.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.NATS.ApplyDefaults()

	m := &c.Telemetry.Metrics.MeterConfig
	def := observability.DefaultMeterConfig(c.Name)
	if m.ServiceName == "" {
		m.ServiceName = c.Name
	}
	if m.ServiceVersion == "" {
		m.ServiceVersion = c.Version
	}
	if m.Environment == "" {
		m.Environment = c.Environment
	}
	if m.Exporter == "" {
		m.Exporter = def.Exporter
	}
	if m.Endpoint == "" {
		m.Endpoint = def.Endpoint
	}
	if m.Interval == 0 {
		m.Interval = def.Interval
	}

	t := &c.Telemetry.Tracing
	if t.Endpoint == "" {
		t.Endpoint = def.Endpoint
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.STT.Validate(); err != nil {
		return err
	}
	if err := c.Audio.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// Validate checks the orchestrator section and every engine it will start.
func (c *STTConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	known := []string{streaming.ProviderName, batchhttp.ProviderName}
	err := validation.New().
		OneOf("stt.primary", c.Primary, known).
		OneOf("stt.secondary", c.Secondary, append(known, transcription.ProviderNone)).
		Err()
	if err != nil {
		return err
	}
	for _, name := range c.engines() {
		switch name {
		case streaming.ProviderName:
			err = c.Streaming.Validate()
		case batchhttp.ProviderName:
			err = c.BatchHTTP.Validate()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// engines returns the engine names to initialize: every configured engine
// plus any named as primary or secondary.
func (c *STTConfig) engines() []string {
	want := map[string]bool{
		streaming.ProviderName: c.Streaming.Endpoint != "",
		batchhttp.ProviderName: c.BatchHTTP.Endpoint != "",
	}
	for _, name := range []string{c.Primary, c.Secondary} {
		if _, known := want[name]; known {
			want[name] = true
		}
	}
	var names []string
	for _, name := range []string{streaming.ProviderName, batchhttp.ProviderName} {
		if want[name] {
			names = append(names, name)
		}
	}
	return names
}
