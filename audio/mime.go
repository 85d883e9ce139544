package audio

import (
	"mime"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Canonical MIME types understood by the converter.
const (
	MIMEWebM = "audio/webm"
	MIMEOgg  = "audio/ogg"
	MIMEMP3  = "audio/mpeg"
	MIMEWAV  = "audio/wav"
	MIMEPCM  = "audio/pcm"
)

var aliases = map[string]string{
	"audio/webm":      MIMEWebM,
	"video/webm":      MIMEWebM,
	"audio/ogg":       MIMEOgg,
	"audio/opus":      MIMEOgg,
	"application/ogg": MIMEOgg,
	"audio/mpeg":      MIMEMP3,
	"audio/mp3":       MIMEMP3,
	"audio/mpeg3":     MIMEMP3,
	"audio/wav":       MIMEWAV,
	"audio/wave":      MIMEWAV,
	"audio/x-wav":     MIMEWAV,
	"audio/vnd.wave":  MIMEWAV,
	"audio/pcm":       MIMEPCM,
	"audio/l16":       MIMEPCM,
	"audio/x-raw":     MIMEPCM,
}

var extensions = map[string]string{
	MIMEWebM: "webm",
	MIMEOgg:  "ogg",
	MIMEMP3:  "mp3",
	MIMEWAV:  "wav",
	MIMEPCM:  "pcm",
}

// Canonical strips parameters (codecs=opus, rate=16000) and folds aliases.
// Unknown types are returned lower-cased without parameters.
func Canonical(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	}
	if c, ok := aliases[base]; ok {
		return c
	}
	return base
}

// DetectMIME returns the canonical type of data. A declared type is trusted
// unless it is empty or generic, in which case the content is sniffed.
func DetectMIME(data []byte, declared string) string {
	c := Canonical(declared)
	if c != "" && c != "application/octet-stream" {
		return c
	}
	return Canonical(mimetype.Detect(data).String())
}

// Extension returns the file extension for a MIME type, defaulting to webm,
// the format browsers record in.
func Extension(mimeType string) string {
	if ext, ok := extensions[Canonical(mimeType)]; ok {
		return ext
	}
	return "webm"
}

// PCMRate returns the rate parameter of an audio/L16 style type, or 0.
func PCMRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return 0
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}

// maxBytesPerSecond is the highest bitrate a recording in each container
// can have, so size divided by it bounds the play time from below.
var maxBytesPerSecond = map[string]int{
	MIMEWebM: 64000,  // 512 kbit/s, the opus ceiling
	MIMEOgg:  64000,  // 512 kbit/s, opus or vorbis
	MIMEMP3:  40000,  // 320 kbit/s
	MIMEWAV:  768000, // 96 kHz stereo 32-bit
}
