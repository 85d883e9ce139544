package audio

import (
	"context"
	"time"

	goerrors "github.com/kbukum/sttkit/errors"
)

// ValidationResult is the outcome of Validate. Err is set when Valid is
// false; Duration is set whenever the clip was probed.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Validate checks data against maxDuration without raising. Clips whose size
// alone proves they are too long are rejected before any probe runs.
// A non-positive maxDuration disables the limit.
func (c *Converter) Validate(ctx context.Context, data []byte, mimeType string, maxDuration time.Duration) ValidationResult {
	if len(data) == 0 {
		return ValidationResult{Err: goerrors.InvalidAudio("audio buffer is empty")}
	}

	hint := DetectMIME(data, mimeType)
	if Canonical(mimeType) == hint {
		hint = mimeType
	}
	if maxDuration > 0 && MinDuration(len(data), hint) > maxDuration {
		return ValidationResult{Err: goerrors.AudioTooLong(0, maxDuration)}
	}

	d, err := c.Duration(ctx, data, mimeType)
	if err != nil {
		return ValidationResult{Err: err}
	}
	if maxDuration > 0 && d > maxDuration {
		return ValidationResult{Duration: d, Err: goerrors.AudioTooLong(d, maxDuration)}
	}
	return ValidationResult{Valid: true, Duration: d}
}

// MinDuration is the shortest play time size bytes of mimeType can have.
// Raw PCM is exact at the rate parameter (default 16 kHz mono). Unknown
// containers report 0.
func MinDuration(size int, mimeType string) time.Duration {
	kind := Canonical(mimeType)
	if kind == MIMEPCM {
		rate := PCMRate(mimeType)
		if rate <= 0 {
			rate = DefaultSampleRate
		}
		return pcmDuration(size, rate, 1)
	}
	bps, ok := maxBytesPerSecond[kind]
	if !ok {
		return 0
	}
	return time.Duration(size) * time.Second / time.Duration(bps)
}
