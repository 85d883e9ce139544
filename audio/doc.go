// Package audio normalizes recorded speech into the sample formats speech
// engines expect and checks clip duration against configured limits.
//
// Compressed input (webm, ogg, mp3) goes through an external ffmpeg
// process; WAV and raw PCM are handled natively. Every call stages its
// input and output under the converter's temp directory and removes both
// before returning.
package audio
