// Package transcription turns a recorded audio clip into text using one of
// several speech engines, falling over from the primary engine to the
// secondary when the primary is unavailable, fails or runs out of time.
//
// # Engines
//
//   - transcription/streaming: websocket engine fed with 16 kHz PCM frames
//   - transcription/batchhttp: multipart HTTP engine fed with the raw upload
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(streaming.ProviderName, streaming.Factory(conv, log))
//	reg.RegisterFactory(batchhttp.ProviderName, batchhttp.Factory(log))
//	_, _ = reg.Initialize(streaming.ProviderName, streamingCfg)
//	_, _ = reg.Initialize(batchhttp.ProviderName, batchCfg)
//
//	orch, err := transcription.NewOrchestrator(cfg, reg, log)
//	result, err := orch.Transcribe(ctx, transcription.Request{Audio: data, MimeType: "audio/webm"})
package transcription
