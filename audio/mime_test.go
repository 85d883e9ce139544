package audio

import (
	"testing"
	"time"
)

func TestCanonical_Table(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"audio/webm;codecs=opus", MIMEWebM},
		{"video/webm", MIMEWebM},
		{"Audio/OGG", MIMEOgg},
		{"audio/mp3", MIMEMP3},
		{"audio/x-wav", MIMEWAV},
		{"audio/L16; rate=16000", MIMEPCM},
		{"audio/flac", "audio/flac"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtension_Table(t *testing.T) {
	tests := map[string]string{
		"audio/webm;codecs=opus": "webm",
		"audio/ogg":              "ogg",
		"audio/mpeg":             "mp3",
		"audio/wave":             "wav",
		"audio/pcm":              "pcm",
		"audio/aac":              "webm",
		"":                       "webm",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPCMRate(t *testing.T) {
	if got := PCMRate("audio/L16;rate=8000"); got != 8000 {
		t.Errorf("expected 8000, got %d", got)
	}
	if got := PCMRate("audio/pcm"); got != 0 {
		t.Errorf("expected 0 without rate, got %d", got)
	}
	if got := PCMRate("audio/pcm;rate=fast"); got != 0 {
		t.Errorf("expected 0 for bad rate, got %d", got)
	}
}

func TestDetectMIME_SniffsWhenUndeclared(t *testing.T) {
	wavData := makeWAV(t, makePCM(0.1), DefaultSampleRate, 1)

	if got := DetectMIME(wavData, ""); got != MIMEWAV {
		t.Errorf("expected sniffed %s, got %s", MIMEWAV, got)
	}
	if got := DetectMIME(wavData, "application/octet-stream"); got != MIMEWAV {
		t.Errorf("expected sniffed %s for octet-stream, got %s", MIMEWAV, got)
	}
	if got := DetectMIME(wavData, "audio/webm"); got != MIMEWebM {
		t.Errorf("expected declared type to win, got %s", got)
	}
}

func TestMinDuration_Table(t *testing.T) {
	tests := []struct {
		name string
		size int
		mime string
		want time.Duration
	}{
		{"webm at opus ceiling", 640000, MIMEWebM, 10 * time.Second},
		{"10s webm at 32 kbit/s", 40000, "audio/webm;codecs=opus", 625 * time.Millisecond},
		{"mp3 at 320 kbit/s", 400000, MIMEMP3, 10 * time.Second},
		{"wav at 96 kHz stereo 32-bit", 768000, MIMEWAV, time.Second},
		{"pcm default rate", 32000, MIMEPCM, time.Second},
		{"pcm declared rate", 96000, "audio/L16;rate=48000", time.Second},
		{"unknown container", 1 << 20, "audio/flac", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinDuration(tt.size, tt.mime); got != tt.want {
				t.Errorf("MinDuration(%d, %q) = %s, want %s", tt.size, tt.mime, got, tt.want)
			}
		})
	}
}
