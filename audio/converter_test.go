package audio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
)

const (
	ffmpegOK   = `for last; do :; done; printf 'converted' > "$last"`
	ffmpegFail = `echo "Invalid data found when processing input" >&2; exit 1`
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func newTestConverter(t *testing.T, ffmpegBody, ffprobeBody string) *Converter {
	t.Helper()
	conv, err := NewConverter(Config{
		TempDir:        t.TempDir(),
		FFmpegCommand:  writeScript(t, "ffmpeg", ffmpegBody),
		FFprobeCommand: writeScript(t, "ffprobe", ffprobeBody),
		MaxConcurrent:  2,
		QueueWaitMs:    1000,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return conv
}

func makePCM(seconds float64) []byte {
	n := int(seconds*DefaultSampleRate) * bytesPerSample
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}
	return pcm
}

func makeWAV(t *testing.T, pcm []byte, rate, channels int) []byte {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "fixture.wav"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := EncodeWAV(f, pcm, rate, channels); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover temp files, found %d", len(entries))
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	conv := newTestConverter(t, ffmpegOK, "echo 1.0")
	_, err := conv.ConvertToPCM(context.Background(), nil, MIMEWebM, PCMOptions())
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidAudio) {
		t.Fatalf("expected INVALID_AUDIO, got %v", err)
	}
}

func TestConvert_UnknownFormat(t *testing.T) {
	conv := newTestConverter(t, ffmpegOK, "echo 1.0")
	_, err := conv.Convert(context.Background(), []byte("x"), MIMEWebM, ConversionOptions{Format: "flac"})
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestConvert_PCMPassthrough(t *testing.T) {
	conv := newTestConverter(t, ffmpegFail, "exit 1")
	pcm := makePCM(0.25)

	out, err := conv.ConvertToPCM(context.Background(), pcm, "audio/pcm", PCMOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, pcm) {
		t.Error("expected passthrough bytes")
	}
	assertEmptyDir(t, conv.TempDir())
}

func TestConvert_WAVDecodedNatively(t *testing.T) {
	conv := newTestConverter(t, ffmpegFail, "exit 1")
	pcm := makePCM(0.5)
	wavData := makeWAV(t, pcm, DefaultSampleRate, 1)

	out, err := conv.ConvertToPCM(context.Background(), wavData, "", PCMOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, pcm) {
		t.Errorf("decoded pcm mismatch: got %d bytes, want %d", len(out), len(pcm))
	}
}

func TestConvertToWAV_FromPCM(t *testing.T) {
	conv := newTestConverter(t, ffmpegFail, "exit 1")
	pcm := makePCM(1)

	out, err := conv.ConvertToWAV(context.Background(), pcm, "audio/L16;rate=16000", ConversionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := WAVDuration(out)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if d != time.Second {
		t.Errorf("expected 1s, got %s", d)
	}
	assertEmptyDir(t, conv.TempDir())
}

func TestConvert_Transcode(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	conv := newTestConverter(t, `echo "$@" > `+argsFile+"\n"+ffmpegOK, "echo 1.0")

	out, err := conv.ConvertToPCM(context.Background(), []byte("webm-bytes"), "audio/webm;codecs=opus", PCMOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "converted" {
		t.Errorf("expected transcoder output, got %q", out)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	for _, want := range []string{"-ac 1", "-ar 16000", "-acodec pcm_s16le", "-f s16le", ".webm"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("expected %q in transcoder args: %s", want, args)
		}
	}
	assertEmptyDir(t, conv.TempDir())
}

func TestConvert_ResamplesRawPCM(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	conv := newTestConverter(t, `echo "$@" > `+argsFile+"\n"+ffmpegOK, "echo 1.0")

	if _, err := conv.ConvertToPCM(context.Background(), makePCM(0.1), "audio/L16;rate=8000", PCMOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args, _ := os.ReadFile(argsFile)
	if !strings.HasPrefix(strings.TrimSpace(string(args)), "-hide_banner") || !strings.Contains(string(args), "-f s16le -ar 8000 -ac 1 -i") {
		t.Errorf("expected raw input flags before -i: %s", args)
	}
}

func TestConvert_TranscoderFailure(t *testing.T) {
	conv := newTestConverter(t, ffmpegFail, "echo 1.0")

	_, err := conv.ConvertToPCM(context.Background(), []byte("garbage"), MIMEOgg, PCMOptions())
	if !goerrors.HasCode(err, goerrors.ErrCodeConversionFailed) {
		t.Fatalf("expected CONVERSION_FAILED, got %v", err)
	}
	appErr, _ := goerrors.AsAppError(err)
	if diag, _ := appErr.Details["diagnostic"].(string); !strings.Contains(diag, "Invalid data found") {
		t.Errorf("expected transcoder diagnostic, got %q", diag)
	}
	assertEmptyDir(t, conv.TempDir())
}

func TestConvert_ContextCanceled(t *testing.T) {
	conv := newTestConverter(t, "sleep 5", "echo 1.0")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := conv.ConvertToPCM(ctx, []byte("webm"), MIMEWebM, PCMOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("transcoder was not stopped promptly: %s", time.Since(start))
	}
	assertEmptyDir(t, conv.TempDir())
}

func TestDuration_Table(t *testing.T) {
	wavData := makeWAV(t, makePCM(1), DefaultSampleRate, 1)

	tests := []struct {
		name    string
		data    []byte
		mime    string
		ffprobe string
		want    time.Duration
		code    goerrors.ErrorCode
	}{
		{name: "raw pcm", data: makePCM(0.5), mime: "audio/pcm", ffprobe: "exit 1", want: 500 * time.Millisecond},
		{name: "wav header", data: wavData, mime: MIMEWAV, ffprobe: "exit 1", want: time.Second},
		{name: "probed webm", data: []byte("webm"), mime: MIMEWebM, ffprobe: "echo 2.5", want: 2500 * time.Millisecond},
		{name: "probe failure", data: []byte("webm"), mime: MIMEWebM, ffprobe: ffmpegFail, code: goerrors.ErrCodeConversionFailed},
		{name: "probe garbage", data: []byte("webm"), mime: MIMEWebM, ffprobe: "echo soon", code: goerrors.ErrCodeConversionFailed},
		{name: "empty", data: nil, mime: MIMEWebM, ffprobe: "echo 1", code: goerrors.ErrCodeInvalidAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := newTestConverter(t, ffmpegFail, tt.ffprobe)
			got, err := conv.Duration(context.Background(), tt.data, tt.mime)
			if tt.code != "" {
				if !goerrors.HasCode(err, tt.code) {
					t.Fatalf("expected %s, got %v", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDuration_DecodesWhenContainerHasNoDuration(t *testing.T) {
	conv := newTestConverter(t, `for last; do :; done; head -c 16000 /dev/zero > "$last"`, "echo N/A")

	got, err := conv.Duration(context.Background(), []byte("webm"), MIMEWebM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", got)
	}
}

func TestValidate_Table(t *testing.T) {
	// 10s of opus at 32 kbit/s, mp3 at 32 kbit/s or vorbis at low quality.
	compressed := make([]byte, 40000)
	limit := 30 * time.Second

	tests := []struct {
		name    string
		data    []byte
		mime    string
		ffprobe string
		max     time.Duration
		valid   bool
		dur     time.Duration
		code    goerrors.ErrorCode
	}{
		{name: "webm within limit", data: compressed, mime: MIMEWebM, ffprobe: "echo 10.0", max: limit, valid: true, dur: 10 * time.Second},
		{name: "ogg within limit", data: compressed, mime: MIMEOgg, ffprobe: "echo 10.0", max: limit, valid: true, dur: 10 * time.Second},
		{name: "mp3 within limit", data: compressed, mime: MIMEMP3, ffprobe: "echo 10.0", max: limit, valid: true, dur: 10 * time.Second},
		{name: "wav within limit", data: makeWAV(t, makePCM(10), DefaultSampleRate, 1), mime: MIMEWAV, ffprobe: ffmpegFail, max: limit, valid: true, dur: 10 * time.Second},
		{name: "pcm within limit", data: makePCM(10), mime: "audio/L16;rate=16000", ffprobe: ffmpegFail, max: limit, valid: true, dur: 10 * time.Second},
		{name: "webm over limit", data: compressed, mime: MIMEWebM, ffprobe: "echo 45.0", max: limit, dur: 45 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "ogg over limit", data: compressed, mime: MIMEOgg, ffprobe: "echo 45.0", max: limit, dur: 45 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "mp3 over limit", data: compressed, mime: MIMEMP3, ffprobe: "echo 45.0", max: limit, dur: 45 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "wav over limit", data: makeWAV(t, makePCM(35), DefaultSampleRate, 1), mime: MIMEWAV, ffprobe: ffmpegFail, max: limit, dur: 35 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "size pre-check skips probe", data: make([]byte, 64000*3), mime: MIMEWebM, ffprobe: ffmpegFail, max: 2 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "pcm size pre-check", data: makePCM(3), mime: MIMEPCM, ffprobe: ffmpegFail, max: 2 * time.Second, code: goerrors.ErrCodeAudioTooLong},
		{name: "no limit", data: []byte("webm"), mime: MIMEWebM, ffprobe: "echo 900", max: 0, valid: true, dur: 900 * time.Second},
		{name: "probe failure", data: []byte("webm"), mime: MIMEWebM, ffprobe: ffmpegFail, max: time.Second, code: goerrors.ErrCodeConversionFailed},
		{name: "empty", data: nil, mime: MIMEWebM, ffprobe: "echo 1", max: time.Second, code: goerrors.ErrCodeInvalidAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := newTestConverter(t, ffmpegFail, tt.ffprobe)
			res := conv.Validate(context.Background(), tt.data, tt.mime, tt.max)
			if res.Valid != tt.valid {
				t.Fatalf("expected valid=%v, got %v (err %v)", tt.valid, res.Valid, res.Err)
			}
			if tt.code != "" && !goerrors.HasCode(res.Err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, res.Err)
			}
			if tt.valid && res.Err != nil {
				t.Errorf("expected no error, got %v", res.Err)
			}
			if res.Duration != tt.dur {
				t.Errorf("expected duration %s, got %s", tt.dur, res.Duration)
			}
		})
	}
}

func TestCleanupOldFiles(t *testing.T) {
	conv := newTestConverter(t, ffmpegOK, "echo 1.0")
	dir := conv.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	files := map[string]bool{
		filePrefix + "old.webm":   true,
		filePrefix + "fresh.webm": false,
		"foreign.webm":            true,
	}
	for name, stale := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if stale {
			if err := os.Chtimes(p, old, old); err != nil {
				t.Fatal(err)
			}
		}
	}

	n, err := conv.CleanupOldFiles(time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 file removed, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, filePrefix+"old.webm")); !os.IsNotExist(err) {
		t.Error("expected stale converter file to be removed")
	}
	for _, keep := range []string{filePrefix + "fresh.webm", "foreign.webm"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("expected %s to survive: %v", keep, err)
		}
	}
}

func TestNewConverter_InvalidCommand(t *testing.T) {
	_, err := NewConverter(Config{TempDir: t.TempDir(), FFmpegCommand: `ffmpeg "unterminated`}, logger.Nop())
	if err == nil {
		t.Fatal("expected parse error")
	}
}
