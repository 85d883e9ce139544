// Package streaming implements a speech engine reached over a websocket
// (Vosk-compatible server protocol).
//
// Each call opens a fresh connection, sends a recognizer configuration with
// a domain phrase list, streams 16 kHz mono PCM16LE in binary frames, sends
// an end-of-stream marker and resolves on the first non-empty final text.
// The engine does not score its output; successful results carry the fixed
// Confidence value.
package streaming
