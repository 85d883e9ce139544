package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config configures the converter and its janitor.
type Config struct {
	// TempDir holds staged input/output files. Defaults to $TMPDIR/sttkit.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
	// FFmpegCommand is the transcoder command line, e.g. "nice -n 10 ffmpeg".
	FFmpegCommand string `yaml:"ffmpeg_command" mapstructure:"ffmpeg_command"`
	// FFprobeCommand is the prober command line.
	FFprobeCommand string `yaml:"ffprobe_command" mapstructure:"ffprobe_command"`
	// MaxConcurrent caps simultaneous transcoder processes.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// QueueWaitMs is how long a call waits for a free transcoder slot.
	QueueWaitMs int `yaml:"queue_wait_ms" mapstructure:"queue_wait_ms" validate:"gte=0"`
	// CleanupIntervalMs is the janitor sweep period.
	CleanupIntervalMs int `yaml:"cleanup_interval_ms" mapstructure:"cleanup_interval_ms" validate:"gte=0"`
	// CleanupMaxAgeMs is the age after which stray temp files are removed.
	CleanupMaxAgeMs int `yaml:"cleanup_max_age_ms" mapstructure:"cleanup_max_age_ms" validate:"gte=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), "sttkit")
	}
	if c.FFmpegCommand == "" {
		c.FFmpegCommand = "ffmpeg"
	}
	if c.FFprobeCommand == "" {
		c.FFprobeCommand = "ffprobe"
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if c.QueueWaitMs == 0 {
		c.QueueWaitMs = 5000
	}
	if c.CleanupIntervalMs == 0 {
		c.CleanupIntervalMs = 600000
	}
	if c.CleanupMaxAgeMs == 0 {
		c.CleanupMaxAgeMs = 3600000
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("audio.max_concurrent must be >= 0 (got: %d)", c.MaxConcurrent)
	}
	if c.CleanupMaxAgeMs < 0 || c.CleanupIntervalMs < 0 {
		return fmt.Errorf("audio cleanup durations must be >= 0")
	}
	return nil
}

// CleanupInterval returns the janitor period.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMs) * time.Millisecond
}

// CleanupMaxAge returns the janitor age threshold.
func (c *Config) CleanupMaxAge() time.Duration {
	return time.Duration(c.CleanupMaxAgeMs) * time.Millisecond
}
