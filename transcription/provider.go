package transcription

import (
	"context"

	"github.com/kbukum/sttkit/provider"
)

// Provider is the interface speech engines implement.
type Provider interface {
	provider.Provider // Name() and IsAvailable()

	// Transcribe converts req.Audio to text. Implementations return an error
	// rather than a result with an empty transcript.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// NewRegistry creates an empty registry for speech engines.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
