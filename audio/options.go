package audio

import "fmt"

// Format is a conversion output format.
type Format string

const (
	FormatPCM Format = "pcm"
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Defaults for speech engines: mono PCM16LE at 16 kHz.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	bytesPerSample    = 2
)

// ConversionOptions describes the requested output.
type ConversionOptions struct {
	Format     Format `json:"format" mapstructure:"format"`
	SampleRate int    `json:"sample_rate" mapstructure:"sample_rate"`
	Channels   int    `json:"channels" mapstructure:"channels"`
	// Codec overrides the encoder chosen for Format.
	Codec string `json:"codec,omitempty" mapstructure:"codec"`
}

// ApplyDefaults fills in zero values.
func (o *ConversionOptions) ApplyDefaults() {
	if o.Format == "" {
		o.Format = FormatPCM
	}
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Channels <= 0 {
		o.Channels = DefaultChannels
	}
}

// Validate rejects unknown formats.
func (o *ConversionOptions) Validate() error {
	switch o.Format {
	case FormatPCM, FormatWAV, FormatMP3:
		return nil
	default:
		return fmt.Errorf("audio: unsupported output format %q", o.Format)
	}
}

// PCMOptions returns the options for mono PCM16LE at 16 kHz.
func PCMOptions() ConversionOptions {
	return ConversionOptions{Format: FormatPCM, SampleRate: DefaultSampleRate, Channels: DefaultChannels}
}

// ffmpegOutput returns the muxer and codec for o.
func (o ConversionOptions) ffmpegOutput() (muxer, codec string) {
	switch o.Format {
	case FormatWAV:
		muxer, codec = "wav", "pcm_s16le"
	case FormatMP3:
		muxer, codec = "mp3", "libmp3lame"
	default:
		muxer, codec = "s16le", "pcm_s16le"
	}
	if o.Codec != "" {
		codec = o.Codec
	}
	return muxer, codec
}
