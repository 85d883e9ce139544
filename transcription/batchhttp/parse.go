package batchhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// DefaultConfidence is reported when the engine returns no confidence.
const DefaultConfidence = 0.85

var (
	errNoTranscript   = errors.New("no transcript in response")
	errUnexpectedBody = errors.New("unexpected response body")
)

type segment struct {
	Text       string   `json:"text"`
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence"`
}

type document struct {
	Text       *string   `json:"text"`
	Segments   []segment `json:"segments"`
	Confidence *float64  `json:"confidence"`
}

// parseResponse extracts the transcript and confidence from the shapes the
// engine returns across versions:
//
//	"bare string"
//	{"text": "..."}
//	{"segments": [{"text"|"transcript": "..."}]}
//	[{"text"|"transcript": "...", "confidence": 0.9}]
//
// A body that is not JSON is taken verbatim only when contentType is
// text/plain. Segment texts are joined with single spaces and confidences
// averaged.
func parseResponse(body []byte, contentType string) (string, float64, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", 0, errNoTranscript
	}

	var (
		text string
		conf = DefaultConfidence
	)
	switch body[0] {
	case '"':
		if err := json.Unmarshal(body, &text); err != nil {
			return "", 0, err
		}
	case '{':
		var doc document
		if err := json.Unmarshal(body, &doc); err != nil {
			return "", 0, err
		}
		if doc.Text != nil && strings.TrimSpace(*doc.Text) != "" {
			text = *doc.Text
		} else {
			text, conf = joinSegments(doc.Segments)
		}
		if doc.Confidence != nil {
			conf = *doc.Confidence
		}
	case '[':
		var segs []segment
		if err := json.Unmarshal(body, &segs); err != nil {
			return "", 0, err
		}
		text, conf = joinSegments(segs)
	default:
		if !isPlainText(contentType) {
			return "", 0, fmt.Errorf("%w: %q is not JSON or text/plain", errUnexpectedBody, contentType)
		}
		text = string(body)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, errNoTranscript
	}
	return text, conf, nil
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/plain"
}

func joinSegments(segs []segment) (string, float64) {
	parts := make([]string, 0, len(segs))
	var sum float64
	var scored int
	for _, s := range segs {
		t := s.Text
		if strings.TrimSpace(t) == "" {
			t = s.Transcript
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
		if s.Confidence != nil {
			sum += *s.Confidence
			scored++
		}
	}
	conf := DefaultConfidence
	if scored > 0 {
		conf = sum / float64(scored)
	}
	return strings.Join(parts, " "), conf
}
