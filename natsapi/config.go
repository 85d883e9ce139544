package natsapi

import (
	"fmt"
	"time"

	"github.com/kbukum/sttkit/validation"
)

// Config configures the NATS surface.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Servers are NATS URLs. Ignored when Embedded is set.
	Servers []string `yaml:"servers" mapstructure:"servers" validate:"omitempty,dive,url"`
	// Name is the client connection name.
	Name     string `yaml:"name" mapstructure:"name"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Token    string `yaml:"token" mapstructure:"token"`

	// Embedded starts an in-process server on EmbeddedPort (-1 picks a free port).
	Embedded     bool `yaml:"embedded" mapstructure:"embedded"`
	EmbeddedPort int  `yaml:"embedded_port" mapstructure:"embedded_port" validate:"gte=-1,lte=65535"`

	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
	QueueGroup    string `yaml:"queue_group" mapstructure:"queue_group"`

	ConnectTimeoutMs int `yaml:"connect_timeout_ms" mapstructure:"connect_timeout_ms" validate:"gte=0"`
	ConnectAttempts  int `yaml:"connect_attempts" mapstructure:"connect_attempts" validate:"gte=0"`
	// RequestTimeoutMs bounds one transcription request end to end.
	RequestTimeoutMs int `yaml:"request_timeout_ms" mapstructure:"request_timeout_ms" validate:"gte=0"`
	// MaxConcurrent caps in-flight transcriptions; MaxWaitMs is how long a
	// request waits for a slot before it is rejected.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	MaxWaitMs     int `yaml:"max_wait_ms" mapstructure:"max_wait_ms" validate:"gte=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "sttd"
	}
	if len(c.Servers) == 0 && !c.Embedded {
		c.Servers = []string{"nats://127.0.0.1:4222"}
	}
	if c.EmbeddedPort == 0 {
		c.EmbeddedPort = 4222
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "stt"
	}
	if c.QueueGroup == "" {
		c.QueueGroup = "sttd"
	}
	if c.ConnectTimeoutMs == 0 {
		c.ConnectTimeoutMs = 2000
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
	if c.RequestTimeoutMs == 0 {
		c.RequestTimeoutMs = 90000
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if c.MaxWaitMs == 0 {
		c.MaxWaitMs = 1000
	}
}

// Validate checks the configuration. A disabled surface always validates.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	if !c.Embedded && len(c.Servers) == 0 {
		return fmt.Errorf("nats.servers is required unless nats.embedded is set")
	}
	return nil
}

// TranscribeSubject is the request-reply subject for transcriptions.
func (c *Config) TranscribeSubject() string { return c.SubjectPrefix + ".transcribe" }

// StatusSubject is the request-reply subject for engine availability.
func (c *Config) StatusSubject() string { return c.SubjectPrefix + ".status" }

func (c *Config) connectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

func (c *Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) maxWait() time.Duration {
	return time.Duration(c.MaxWaitMs) * time.Millisecond
}
