package batchhttp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/sttkit/audio"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/httpclient"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/provider"
	"github.com/kbukum/sttkit/transcription"
)

// ProviderName is the registered name of the batch HTTP engine.
const ProviderName = "batchHttp"

const asrPath = "/asr"

// Provider implements transcription.Provider over HTTP.
type Provider struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

var (
	_ transcription.Provider = (*Provider)(nil)
	_ provider.Closeable     = (*Provider)(nil)
)

// NewProvider creates a batch HTTP engine client.
func NewProvider(cfg Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("stt.batch_http: %w", err)
	}
	if log == nil {
		log = logger.Get(ProviderName)
	}
	return &Provider{cfg: cfg, client: client, log: log.WithComponent("stt-batch-http")}, nil
}

// Factory returns a provider.Factory that builds the engine from a config
// map with the Config keys.
func Factory(log *logger.Logger) provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		var cfg Config
		if err := mapstructure.WeakDecode(m, &cfg); err != nil {
			return nil, fmt.Errorf("stt.batch_http: decode config: %w", err)
		}
		return NewProvider(cfg, log)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable issues an unauthenticated GET against the probe path.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    p.cfg.ProbePath,
		Timeout: p.cfg.ProbeTimeout(),
	})
	if err != nil {
		p.log.Debug("probe failed", logger.ErrorFields("probe", err))
		return false
	}
	return resp.IsSuccess()
}

// Transcribe uploads the unconverted clip and parses the transcript.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	fields := map[string]string{
		"language": LanguageCode(req.Language),
		"task":     "transcribe",
		"output":   "json",
		"encode":   "true",
	}
	if p.cfg.PrimingPhrase != "" {
		fields["initial_prompt"] = p.cfg.PrimingPhrase
	}

	kind := audio.DetectMIME(req.Audio, req.MimeType)
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   asrPath,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio_file",
				FileName:    "audio." + audio.Extension(kind),
				ContentType: kind,
				Data:        req.Audio,
			}},
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, goerrors.ProviderProtocol(ProviderName, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	text, conf, err := parseResponse(resp.Body, resp.Headers["Content-Type"])
	if err != nil {
		return nil, goerrors.ProviderProtocol(ProviderName, err.Error()).WithCause(err)
	}
	return &transcription.Result{
		Provider:   ProviderName,
		Transcript: text,
		Confidence: conf,
		Language:   req.Language,
	}, nil
}

// classify maps transport errors to the provider taxonomy.
func (p *Provider) classify(err error) error {
	switch {
	case httpclient.IsTimeout(err):
		return goerrors.ProviderTimeout(ProviderName, p.cfg.Timeout()).WithCause(err)
	case httpclient.IsCircuitOpen(err):
		return goerrors.ProviderUnavailable(ProviderName).WithCause(err)
	default:
		return goerrors.ProviderProtocol(ProviderName, err.Error()).WithCause(err)
	}
}

// CircuitOpen reports whether the breaker is rejecting calls.
func (p *Provider) CircuitOpen() bool { return p.client.CircuitOpen() }

// Close releases idle connections.
func (p *Provider) Close(context.Context) error {
	p.client.Close()
	return nil
}
