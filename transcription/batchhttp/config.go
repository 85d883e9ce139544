package batchhttp

import (
	"fmt"
	"time"

	"github.com/kbukum/sttkit/httpclient"
	"github.com/kbukum/sttkit/validation"
)

const (
	defaultProbePath      = "/docs"
	defaultTimeoutMs      = 30000
	defaultProbeTimeoutMs = 2000
)

// Config configures the batch HTTP engine.
type Config struct {
	// Endpoint is the engine's base URL, e.g. "http://whisper:9000".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	// ProbePath is fetched by availability checks.
	ProbePath string `yaml:"probe_path" mapstructure:"probe_path"`
	// TimeoutMs bounds one transcription request.
	TimeoutMs int `yaml:"timeout_ms" mapstructure:"timeout_ms" validate:"gte=0"`
	// ProbeTimeoutMs bounds one availability check.
	ProbeTimeoutMs int `yaml:"probe_timeout_ms" mapstructure:"probe_timeout_ms" validate:"gte=0"`
	// PrimingPhrase is sent as initial_prompt when set.
	PrimingPhrase string `yaml:"priming_phrase" mapstructure:"priming_phrase"`
	// CircuitBreaker makes calls fail fast while the engine keeps failing.
	CircuitBreaker BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// BreakerConfig configures the optional circuit breaker.
type BreakerConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	MaxFailures int  `yaml:"max_failures" mapstructure:"max_failures" validate:"gte=0"`
	// OpenTimeoutMs is how long the breaker stays open before a trial call.
	OpenTimeoutMs int `yaml:"open_timeout_ms" mapstructure:"open_timeout_ms" validate:"gte=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.ProbePath == "" {
		c.ProbePath = defaultProbePath
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = defaultTimeoutMs
	}
	if c.ProbeTimeoutMs == 0 {
		c.ProbeTimeoutMs = defaultProbeTimeoutMs
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("stt.batch_http: %w", err)
	}
	return nil
}

// Timeout returns the transcription request deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ProbeTimeout returns the availability check deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// clientConfig maps c onto the shared HTTP client. Retries are off: a
// failed call hands over to the next engine instead.
func (c *Config) clientConfig() httpclient.Config {
	hc := httpclient.Config{
		BaseURL: c.Endpoint,
		Timeout: c.Timeout(),
		Headers: map[string]string{"Accept": "application/json"},
	}
	if c.CircuitBreaker.Enabled {
		cb := httpclient.DefaultCircuitBreakerConfig(ProviderName)
		if c.CircuitBreaker.MaxFailures > 0 {
			cb.MaxFailures = c.CircuitBreaker.MaxFailures
		}
		if c.CircuitBreaker.OpenTimeoutMs > 0 {
			cb.Timeout = time.Duration(c.CircuitBreaker.OpenTimeoutMs) * time.Millisecond
		}
		hc.CircuitBreaker = cb
	}
	return hc
}
