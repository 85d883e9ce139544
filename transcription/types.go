package transcription

import "time"

// Request holds one clip to transcribe.
type Request struct {
	// Audio is the clip as uploaded, in any supported container.
	Audio []byte `json:"-"`
	// MimeType describes Audio, e.g. "audio/webm;codecs=opus".
	MimeType string `json:"mime_type"`
	// Language is an IETF tag such as "de-DE". Empty selects the default.
	Language string `json:"language,omitempty"`
	// MaxDuration bounds each engine's transcription. Zero selects the default.
	MaxDuration time.Duration `json:"-"`
}

// Result is a completed transcription.
type Result struct {
	Provider   string  `json:"provider"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	// DurationMs is the wall-clock time of the whole orchestrated call.
	DurationMs int64  `json:"durationMs"`
	Language   string `json:"language"`
	Error      string `json:"error,omitempty"`
}

// clampConfidence keeps c within [0, 1].
func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
