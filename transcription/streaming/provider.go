package streaming

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gorilla/websocket"

	"github.com/kbukum/sttkit/audio"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/provider"
	"github.com/kbukum/sttkit/transcription"
)

const (
	// ProviderName is the registered name of the streaming engine.
	ProviderName = "streaming"

	// Confidence is reported for every successful result; the recognizer
	// does not score its transcripts.
	Confidence = 0.9
)

// PCMConverter turns an uploaded clip into PCM16LE.
type PCMConverter interface {
	ConvertToPCM(ctx context.Context, data []byte, mimeType string, opts audio.ConversionOptions) ([]byte, error)
}

// Provider implements transcription.Provider over a websocket.
type Provider struct {
	cfg    Config
	conv   PCMConverter
	dialer *websocket.Dialer
	log    *logger.Logger
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a streaming engine client.
func NewProvider(cfg Config, conv PCMConverter, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("stt.streaming: converter is required")
	}
	if log == nil {
		log = logger.Get(ProviderName)
	}
	return &Provider{
		cfg:  cfg,
		conv: conv,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.ConnectTimeout(),
			ReadBufferSize:   4096,
			WriteBufferSize:  cfg.ChunkSize + 64,
		},
		log: log.WithComponent("stt-streaming"),
	}, nil
}

// Factory returns a provider.Factory that builds the engine from a config
// map with the Config keys.
func Factory(conv PCMConverter, log *logger.Logger) provider.Factory[transcription.Provider] {
	return func(m map[string]any) (transcription.Provider, error) {
		var cfg Config
		if err := mapstructure.WeakDecode(m, &cfg); err != nil {
			return nil, fmt.Errorf("stt.streaming: decode config: %w", err)
		}
		return NewProvider(cfg, conv, log)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable dials the endpoint and closes the connection straight away.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Debug("probe failed", logger.ErrorFields("probe", err))
		return false
	}
	_ = conn.Close()
	return true
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout())
	defer cancel()

	conn, resp, err := p.dialer.DialContext(ctx, p.cfg.Endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// Transcribe streams req.Audio to the recognizer and waits for a final
// transcript. A watchdog fails the call after the response timeout.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		return nil, goerrors.ConnectionFailed(ProviderName).WithCause(err)
	}
	defer func() { _ = conn.Close() }()

	s := &session{conn: conn, done: make(chan struct{}), log: p.log}

	watchdog := time.AfterFunc(p.cfg.ResponseTimeout(), func() {
		s.abort(goerrors.ProviderTimeout(ProviderName, p.cfg.ResponseTimeout()))
	})
	defer watchdog.Stop()
	stop := context.AfterFunc(ctx, func() { s.abort(ctx.Err()) })
	defer stop()

	if err := conn.WriteJSON(newConfigFrame(p.cfg.PhraseList)); err != nil {
		return nil, p.protocolError("send config", err)
	}

	pcm, err := p.conv.ConvertToPCM(ctx, req.Audio, req.MimeType, audio.ConversionOptions{
		Format:     audio.FormatPCM,
		SampleRate: SampleRate,
		Channels:   1,
	})
	if err != nil {
		return nil, err
	}

	go s.read()
	p.stream(s, pcm)

	<-s.done
	if s.err != nil {
		return nil, s.err
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return &transcription.Result{
		Provider:   ProviderName,
		Transcript: s.text,
		Confidence: Confidence,
		Language:   req.Language,
	}, nil
}

// stream sends pcm in ChunkSize frames followed by the end-of-stream
// marker, stopping early once the session settles.
func (p *Provider) stream(s *session, pcm []byte) {
	for off := 0; off < len(pcm); off += p.cfg.ChunkSize {
		if s.settled() {
			return
		}
		end := min(off+p.cfg.ChunkSize, len(pcm))
		if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			s.settle("", p.protocolError("send audio", err))
			return
		}
	}
	if s.settled() {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, eofFrame); err != nil {
		s.settle("", p.protocolError("send eof", err))
	}
}

func (p *Provider) protocolError(op string, err error) error {
	return goerrors.ProviderProtocol(ProviderName, op+": "+err.Error()).WithCause(err)
}

// session is one transcription exchange. It can be settled by the reader
// (final text or closure), the writer (send error), the watchdog or the
// caller's context; only the first settlement takes effect.
type session struct {
	conn *websocket.Conn
	log  *logger.Logger

	once sync.Once
	done chan struct{}
	text string
	err  error
}

func (s *session) settle(text string, err error) {
	s.once.Do(func() {
		s.text, s.err = text, err
		close(s.done)
	})
}

// abort settles with err and closes the socket to unblock pending I/O.
func (s *session) abort(err error) {
	s.settle("", err)
	_ = s.conn.Close()
}

func (s *session) settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// read consumes recognizer frames until a final transcript arrives or the
// connection closes. On closure the last partial hypothesis is used.
func (s *session) read() {
	var partial string
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if partial != "" {
				s.settle(partial, nil)
				return
			}
			reason := "closed without result"
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				reason = "closed without result: " + err.Error()
			}
			s.settle("", goerrors.ProviderProtocol(ProviderName, reason).WithCause(err))
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		frame, err := decodeReply(data)
		if err != nil {
			s.log.Debug("ignoring malformed frame", logger.ErrorFields("decode", err))
			continue
		}
		if text := strings.TrimSpace(frame.Text); text != "" {
			s.settle(text, nil)
			return
		}
		if p := strings.TrimSpace(frame.Partial); p != "" {
			partial = p
			s.log.Debug("partial result", logger.Fields("partial", p))
		}
	}
}
