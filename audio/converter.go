package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/process"
	"github.com/kbukum/sttkit/resilience"
)

// Converter transcodes and probes audio clips.
type Converter struct {
	cfg     Config
	ffmpeg  process.Command
	ffprobe process.Command
	slots   *resilience.Bulkhead
	log     *logger.Logger
}

// NewConverter creates a Converter and its temp directory.
func NewConverter(cfg Config, log *logger.Logger) (*Converter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ffmpeg, err := process.Parse(cfg.FFmpegCommand)
	if err != nil {
		return nil, fmt.Errorf("audio: ffmpeg_command: %w", err)
	}
	ffprobe, err := process.Parse(cfg.FFprobeCommand)
	if err != nil {
		return nil, fmt.Errorf("audio: ffprobe_command: %w", err)
	}
	if err := os.MkdirAll(cfg.TempDir, 0o700); err != nil {
		return nil, fmt.Errorf("audio: temp dir: %w", err)
	}
	if log == nil {
		log = logger.Get("audio")
	}
	return &Converter{
		cfg:     cfg,
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		slots: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "transcoder",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       time.Duration(cfg.QueueWaitMs) * time.Millisecond,
		}),
		log: log.WithComponent("audio"),
	}, nil
}

// TempDir returns the staging directory.
func (c *Converter) TempDir() string { return c.cfg.TempDir }

// Available reports whether the transcoder binaries resolve.
func (c *Converter) Available() bool {
	return process.Available(c.ffmpeg.Binary) && process.Available(c.ffprobe.Binary)
}

// ConvertToPCM converts data to raw PCM16LE at opts.SampleRate/opts.Channels.
func (c *Converter) ConvertToPCM(ctx context.Context, data []byte, mimeType string, opts ConversionOptions) ([]byte, error) {
	opts.Format = FormatPCM
	return c.Convert(ctx, data, mimeType, opts)
}

// ConvertToWAV converts data to a 16-bit WAV container.
func (c *Converter) ConvertToWAV(ctx context.Context, data []byte, mimeType string, opts ConversionOptions) ([]byte, error) {
	opts.Format = FormatWAV
	return c.Convert(ctx, data, mimeType, opts)
}

// Convert converts data to opts.Format. WAV and raw PCM input that already
// matches the target is handled without spawning a transcoder.
func (c *Converter) Convert(ctx context.Context, data []byte, mimeType string, opts ConversionOptions) ([]byte, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, goerrors.InvalidInput("format", err.Error())
	}
	if len(data) == 0 {
		return nil, goerrors.InvalidAudio("audio buffer is empty")
	}

	kind := DetectMIME(data, mimeType)
	inRate := DefaultSampleRate
	if kind == MIMEPCM {
		if r := PCMRate(mimeType); r > 0 {
			inRate = r
		}
	}

	if out, ok, err := c.convertNative(data, kind, inRate, opts); ok {
		return out, err
	}
	return c.transcode(ctx, data, kind, inRate, opts)
}

func (c *Converter) convertNative(data []byte, kind string, inRate int, opts ConversionOptions) ([]byte, bool, error) {
	var pcm []byte
	switch kind {
	case MIMEPCM:
		if inRate != opts.SampleRate || opts.Channels != 1 {
			return nil, false, nil
		}
		pcm = data
	case MIMEWAV:
		clip, err := decodeWAV(data)
		if err != nil || !clip.matches(opts) {
			return nil, false, nil
		}
		if opts.Format == FormatWAV {
			return bytes.Clone(data), true, nil
		}
		pcm = clip.pcm
	default:
		return nil, false, nil
	}

	switch opts.Format {
	case FormatPCM:
		return bytes.Clone(pcm), true, nil
	case FormatWAV:
		out, err := c.encodeWAV(pcm, opts.SampleRate, opts.Channels)
		return out, true, err
	default:
		return nil, false, nil
	}
}

// encodeWAV stages the encoder output on disk since the WAV writer seeks
// back to patch the header sizes.
func (c *Converter) encodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	s := newScratch(c.cfg.TempDir)
	defer s.release()

	f, err := os.OpenFile(s.path("wav"), os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, goerrors.Internal(err)
	}
	defer func() { _ = f.Close() }()

	if err := EncodeWAV(f, pcm, sampleRate, channels); err != nil {
		return nil, goerrors.ConversionFailed("conversion", err.Error()).WithCause(err)
	}
	out, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, goerrors.Internal(err)
	}
	return out, nil
}

func (c *Converter) transcode(ctx context.Context, data []byte, kind string, inRate int, opts ConversionOptions) ([]byte, error) {
	s := newScratch(c.cfg.TempDir)
	defer s.release()

	in, err := s.write(data, Extension(kind))
	if err != nil {
		return nil, goerrors.Internal(err)
	}
	out := s.path(string(opts.Format))
	muxer, codec := opts.ffmpegOutput()

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	if kind == MIMEPCM {
		args = append(args, "-f", "s16le", "-ar", strconv.Itoa(inRate), "-ac", "1")
	}
	args = append(args,
		"-i", in,
		"-vn",
		"-ac", strconv.Itoa(opts.Channels),
		"-ar", strconv.Itoa(opts.SampleRate),
		"-acodec", codec,
		"-f", muxer,
		out,
	)

	start := time.Now()
	if _, err := c.run(ctx, c.ffmpeg.With(args...)); err != nil {
		return nil, c.failure(ctx, "conversion", err)
	}

	result, err := os.ReadFile(out)
	if err != nil || len(result) == 0 {
		return nil, goerrors.ConversionFailed("conversion", "transcoder produced no output")
	}
	c.log.Debug("audio converted", logger.Fields(
		logger.FieldMimeType, kind,
		"format", string(opts.Format),
		logger.FieldBytes, len(result),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return result, nil
}

// Duration returns the play time of data. WAV and raw PCM are measured
// natively; other containers are probed, and decoded when the container
// carries no duration (typical for browser-recorded webm).
func (c *Converter) Duration(ctx context.Context, data []byte, mimeType string) (time.Duration, error) {
	if len(data) == 0 {
		return 0, goerrors.InvalidAudio("audio buffer is empty")
	}
	kind := DetectMIME(data, mimeType)
	switch kind {
	case MIMEPCM:
		rate := PCMRate(mimeType)
		if rate <= 0 {
			rate = DefaultSampleRate
		}
		return pcmDuration(len(data), rate, 1), nil
	case MIMEWAV:
		if d, err := WAVDuration(data); err == nil {
			return d, nil
		}
	}

	d, known, err := c.probe(ctx, data, kind)
	if err != nil {
		return 0, err
	}
	if known {
		return d, nil
	}

	pcm, err := c.transcode(ctx, data, kind, DefaultSampleRate, PCMOptions())
	if err != nil {
		return 0, err
	}
	return pcmDuration(len(pcm), DefaultSampleRate, DefaultChannels), nil
}

// probe asks ffprobe for the container duration. known is false when the
// container parses but declares no duration.
func (c *Converter) probe(ctx context.Context, data []byte, kind string) (d time.Duration, known bool, err error) {
	s := newScratch(c.cfg.TempDir)
	defer s.release()

	in, err := s.write(data, Extension(kind))
	if err != nil {
		return 0, false, goerrors.Internal(err)
	}
	res, err := c.run(ctx, c.ffprobe.With(
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	))
	if err != nil {
		return 0, false, c.failure(ctx, "probe", err)
	}

	out := strings.TrimSpace(string(res.Stdout))
	if out == "" || out == "N/A" {
		return 0, false, nil
	}
	secs, err := strconv.ParseFloat(out, 64)
	if err != nil || secs < 0 {
		return 0, false, goerrors.ConversionFailed("probe", "unexpected prober output: "+out)
	}
	return time.Duration(secs * float64(time.Second)), true, nil
}

// run executes cmd once a transcoder slot is free.
func (c *Converter) run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	return resilience.ExecuteWithResult(ctx, c.slots, func() (*process.Result, error) {
		return process.Run(ctx, cmd)
	})
}

// failure maps a subprocess error to the error taxonomy.
func (c *Converter) failure(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("audio: %s aborted: %w", op, err)
	}
	if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
		return goerrors.ServiceUnavailable("audio converter").WithCause(err)
	}
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		c.log.Warn("transcoder failed", logger.Fields(logger.FieldOperation, op, "diagnostic", exitErr.Diagnostic))
		return goerrors.ConversionFailed(op, exitErr.Diagnostic).WithCause(err)
	}
	return goerrors.ConversionFailed(op, err.Error()).WithCause(err)
}
