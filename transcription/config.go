package transcription

import (
	"fmt"
	"time"

	"github.com/kbukum/sttkit/validation"
)

// ProviderNone disables the secondary engine.
const ProviderNone = "none"

// Config configures the orchestrator.
type Config struct {
	// Enabled is the master switch. When false every call fails fast.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Primary is the engine tried first.
	Primary string `yaml:"primary" mapstructure:"primary"`
	// Secondary is tried after any primary failure. Empty or "none" disables it.
	Secondary string `yaml:"secondary" mapstructure:"secondary"`
	// Language is the default IETF language tag.
	Language string `yaml:"language" mapstructure:"language" validate:"omitempty,bcp47_language_tag"`
	// MaxDurationMs bounds each engine's transcription and the accepted clip length.
	MaxDurationMs int `yaml:"max_duration_ms" mapstructure:"max_duration_ms" validate:"gte=0"`
	// ProbeTimeoutMs bounds each availability probe.
	ProbeTimeoutMs int `yaml:"probe_timeout_ms" mapstructure:"probe_timeout_ms" validate:"gte=0"`
}

// DefaultConfig returns an enabled configuration with streaming as primary
// and batch HTTP as secondary.
func DefaultConfig() Config {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero values. Enabled is left as set.
func (c *Config) ApplyDefaults() {
	if c.Primary == "" {
		c.Primary = "streaming"
	}
	if c.Secondary == "" {
		c.Secondary = "batchHttp"
	}
	if c.Language == "" {
		c.Language = "de-DE"
	}
	if c.MaxDurationMs == 0 {
		c.MaxDurationMs = 30000
	}
	if c.ProbeTimeoutMs == 0 {
		c.ProbeTimeoutMs = 2000
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("stt: %w", err)
	}
	if c.Primary == ProviderNone {
		return fmt.Errorf("stt.primary cannot be %q", ProviderNone)
	}
	return nil
}

// MaxDuration returns the default per-call limit.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMs) * time.Millisecond
}

// ProbeTimeout returns the availability probe deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// order returns the engine names to try, in order.
func (c *Config) order() []string {
	names := []string{c.Primary}
	if c.Secondary != "" && c.Secondary != ProviderNone && c.Secondary != c.Primary {
		names = append(names, c.Secondary)
	}
	return names
}
