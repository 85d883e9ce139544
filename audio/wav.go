package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var errNotWAV = errors.New("audio: not a RIFF/WAVE stream")

// wavClip is a decoded WAV file.
type wavClip struct {
	sampleRate int
	channels   int
	bitDepth   int
	duration   time.Duration
	pcm        []byte
}

// EncodeWAV wraps PCM16LE samples in a WAV container written to w.
func EncodeWAV(w io.WriteSeeker, pcm []byte, sampleRate, channels int) error {
	if len(pcm)%bytesPerSample != 0 {
		return fmt.Errorf("audio: pcm payload not aligned")
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, len(pcm)/bytesPerSample),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:])))
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: close wav encoder: %w", err)
	}
	return nil
}

// WAVDuration reads the duration from a WAV header without decoding samples.
func WAVDuration(data []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, errNotWAV
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("audio: wav duration: %w", err)
	}
	return d, nil
}

// decodeWAV decodes a 16-bit WAV into interleaved PCM16LE.
func decodeWAV(data []byte) (*wavClip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	clip := &wavClip{
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
	}
	if clip.bitDepth != 16 {
		return clip, nil
	}
	clip.pcm = make([]byte, len(buf.Data)*bytesPerSample)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(clip.pcm[i*bytesPerSample:], uint16(int16(s)))
	}
	clip.duration = pcmDuration(len(clip.pcm), clip.sampleRate, clip.channels)
	return clip, nil
}

// matches reports whether the clip can be used as-is for opts.
func (c *wavClip) matches(opts ConversionOptions) bool {
	return c.pcm != nil && c.sampleRate == opts.SampleRate && c.channels == opts.Channels
}

// pcmDuration returns the play time of n bytes of PCM16LE.
func pcmDuration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := n / (bytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
