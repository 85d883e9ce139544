// Package provider implements a small generic provider framework: a named
// registry of factories and instances, plus the race-with-timeout combinator
// used for every availability probe and every provider call.
//
//	reg := provider.NewRegistry[transcription.Provider]()
//	reg.RegisterFactory("streaming", streaming.Factory(conv, log))
//	p, _ := reg.Initialize("streaming", cfg)
//	ok := provider.Probe(ctx, p, 2*time.Second)
//
// Optional lifecycle hooks are discovered with type assertions:
//   - Initializable: providers that need setup before handling requests
//   - Closeable: providers that hold resources (connections, breakers)
package provider
