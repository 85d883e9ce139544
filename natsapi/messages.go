package natsapi

import (
	"regexp"
	"time"

	"github.com/kbukum/sttkit/transcription"
	"github.com/kbukum/sttkit/validation"
)

// HeaderRequestID carries the caller's request ID on transcription messages.
const HeaderRequestID = "X-Request-Id"

// mediaTypePattern matches type/subtype with optional parameters.
var mediaTypePattern = regexp.MustCompile(`^[\w.+-]+/[\w.+-]+(\s*;.*)?$`)

// TranscribeRequest is the body of a stt.transcribe message. Audio is
// base64 in JSON.
type TranscribeRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	Audio         []byte `json:"audio"`
	MimeType      string `json:"mime_type"`
	Language      string `json:"language,omitempty"`
	MaxDurationMs int    `json:"max_duration_ms,omitempty"`
}

// validate checks the request against limit and returns the duration cap.
func (r *TranscribeRequest) validate(limit time.Duration) (time.Duration, error) {
	v := validation.New().
		Custom(len(r.Audio) > 0, "audio", "is required").
		OptionalUUID("request_id", r.RequestID).
		Pattern("mime_type", r.MimeType, mediaTypePattern).
		MaxLength("language", r.Language, 35).
		LanguageTag("language", r.Language)

	maxDuration := limit
	if r.MaxDurationMs != 0 {
		if limit > 0 {
			v.Range("max_duration_ms", r.MaxDurationMs, 1, int(limit.Milliseconds()))
		} else {
			v.Custom(r.MaxDurationMs > 0, "max_duration_ms", "must be positive")
		}
		maxDuration = time.Duration(r.MaxDurationMs) * time.Millisecond
	}
	if err := v.Err(); err != nil {
		return 0, err
	}
	return maxDuration, nil
}

func (r *TranscribeRequest) toRequest(maxDuration time.Duration) transcription.Request {
	return transcription.Request{
		Audio:       r.Audio,
		MimeType:    r.MimeType,
		Language:    r.Language,
		MaxDuration: maxDuration,
	}
}
