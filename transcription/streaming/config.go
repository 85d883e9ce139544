package streaming

import (
	"fmt"
	"time"

	"github.com/kbukum/sttkit/validation"
)

const (
	defaultConnectTimeoutMs  = 2000
	defaultResponseTimeoutMs = 30000
	defaultChunkSize         = 8192
)

// Config configures the streaming engine.
type Config struct {
	// Endpoint is the websocket URL, e.g. "ws://vosk:2700".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	// ConnectTimeoutMs bounds the dial, for probes and transcriptions alike.
	ConnectTimeoutMs int `yaml:"connect_timeout_ms" mapstructure:"connect_timeout_ms" validate:"gte=0"`
	// ResponseTimeoutMs is the per-call watchdog.
	ResponseTimeoutMs int `yaml:"response_timeout_ms" mapstructure:"response_timeout_ms" validate:"gte=0"`
	// ChunkSize is the maximum binary frame size in bytes.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0,lte=8192"`
	// PhraseList biases recognition. Empty selects DefaultPhraseList.
	PhraseList []string `yaml:"phrase_list" mapstructure:"phrase_list"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeoutMs == 0 {
		c.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
	if c.ResponseTimeoutMs == 0 {
		c.ResponseTimeoutMs = defaultResponseTimeoutMs
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	if len(c.PhraseList) == 0 {
		c.PhraseList = DefaultPhraseList()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("stt.streaming: %w", err)
	}
	return nil
}

// ConnectTimeout returns the dial deadline.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// ResponseTimeout returns the watchdog period.
func (c *Config) ResponseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutMs) * time.Millisecond
}
