package natsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/kbukum/sttkit/audio"
	"github.com/kbukum/sttkit/component"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/resilience"
	"github.com/kbukum/sttkit/transcription"
)

const componentName = "nats"

// Transcriber is the orchestrator surface the service needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
	ProvidersStatus(ctx context.Context) map[string]bool
}

// AudioValidator checks a clip before it reaches the engines.
type AudioValidator interface {
	Validate(ctx context.Context, data []byte, mimeType string, maxDuration time.Duration) audio.ValidationResult
}

var _ component.Component = (*Service)(nil)

// Service answers transcription and status requests on NATS.
type Service struct {
	cfg         Config
	stt         Transcriber
	validator   AudioValidator
	maxDuration time.Duration
	metrics     *observability.Metrics
	log         *logger.Logger
	bulkhead    *resilience.Bulkhead

	mu       sync.Mutex
	embedded *server.Server
	conn     *nats.Conn
	subs     []*nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithValidator runs a duration pre-flight on every clip.
func WithValidator(v AudioValidator) Option {
	return func(s *Service) { s.validator = v }
}

// WithMetrics records request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service. maxDuration caps per-request overrides.
func NewService(cfg Config, stt Transcriber, maxDuration time.Duration, log *logger.Logger, opts ...Option) *Service {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get(componentName)
	}
	s := &Service{
		cfg:         cfg,
		stt:         stt,
		maxDuration: maxDuration,
		log:         log.WithComponent("natsapi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "natsapi",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.maxWait(),
		OnReject: func(name string) {
			s.log.Warn("transcription rejected, bulkhead full", logger.Fields("bulkhead", name))
		},
	})
	return s
}

// Name implements component.Component.
func (s *Service) Name() string { return componentName }

// Start connects, retrying with backoff, and subscribes both subjects.
func (s *Service) Start(ctx context.Context) error {
	urls := strings.Join(s.cfg.Servers, ",")
	if s.cfg.Embedded {
		ns, err := startEmbedded(s.cfg.EmbeddedPort)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.embedded = ns
		s.mu.Unlock()
		urls = ns.ClientURL()
		s.log.Info("embedded NATS server started", logger.Fields(logger.FieldEndpoint, urls))
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = s.cfg.ConnectAttempts
	retry.InitialBackoff = 250 * time.Millisecond
	retry.RetryIf = retryConnect
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("NATS connect failed, retrying", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}
	conn, err := resilience.Retry(ctx, retry, func() (*nats.Conn, error) {
		return nats.Connect(urls, s.connectOptions()...)
	})
	if err != nil {
		s.shutdownEmbedded()
		return fmt.Errorf("connect to nats %s: %w", urls, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.conn = conn
	s.ctx, s.cancel = runCtx, cancel
	s.mu.Unlock()

	handlers := map[string]nats.MsgHandler{
		s.cfg.TranscribeSubject(): s.handleTranscribe,
		s.cfg.StatusSubject():     s.handleStatus,
	}
	for subject, h := range handlers {
		sub, err := conn.QueueSubscribe(subject, s.cfg.QueueGroup, h)
		if err != nil {
			s.Stop(ctx)
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}
	if err := conn.Flush(); err != nil {
		s.Stop(ctx)
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	s.log.Info("NATS surface ready", logger.Fields(
		logger.FieldEndpoint, conn.ConnectedUrl(),
		"subjects", []string{s.cfg.TranscribeSubject(), s.cfg.StatusSubject()},
		"queue", s.cfg.QueueGroup,
	))
	return nil
}

func (s *Service) connectOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(s.cfg.Name),
		nats.Timeout(s.cfg.connectTimeout()),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.log.Warn("NATS disconnected", logger.Fields(logger.FieldError, err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.log.Info("NATS reconnected", logger.Fields(logger.FieldEndpoint, c.ConnectedUrl()))
		}),
	}
	if s.cfg.Username != "" || s.cfg.Password != "" {
		opts = append(opts, nats.UserInfo(s.cfg.Username, s.cfg.Password))
	}
	if s.cfg.Token != "" {
		opts = append(opts, nats.Token(s.cfg.Token))
	}
	return opts
}

// Stop drains subscriptions, waits for in-flight requests and closes the
// connection.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	subs, conn, cancel := s.subs, s.conn, s.cancel
	s.subs, s.conn = nil, nil
	s.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
	}
	if cancel != nil {
		cancel()
	}

	if conn != nil {
		conn.Close()
	}
	s.shutdownEmbedded()
	s.log.Info("NATS surface stopped")
	return errors.Join(errs...)
}

// Health reports the connection state.
func (s *Service) Health(ctx context.Context) component.Health {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	h := component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not connected"}
	if conn == nil {
		return h
	}
	switch conn.Status() {
	case nats.CONNECTED:
		h.Status, h.Message = component.StatusHealthy, ""
	case nats.RECONNECTING:
		h.Status, h.Message = component.StatusDegraded, "reconnecting"
	}
	return h
}

func (s *Service) handleStatus(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(s.runContext(), s.cfg.requestTimeout())
	defer cancel()
	s.reply(msg, s.stt.ProvidersStatus(ctx))
}

func (s *Service) handleTranscribe(msg *nats.Msg) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.transcribe(msg)
	}()
}

func (s *Service) transcribe(msg *nats.Msg) {
	var req TranscribeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.replyError(msg, goerrors.InvalidInput("body", "must be a JSON transcription request"))
		return
	}
	if req.RequestID == "" && msg.Header != nil {
		req.RequestID = msg.Header.Get(HeaderRequestID)
	}
	maxDuration, err := req.validate(s.maxDuration)
	if err != nil {
		s.replyError(msg, err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(s.runContext(), s.cfg.requestTimeout())
	defer cancel()
	ctx = context.WithValue(ctx, logger.RequestIDKey, req.RequestID)

	ctx, tracked := observability.StartRequest(ctx, s.metrics, observability.SurfaceNATS, msg.Subject, req.RequestID)
	tracked.Clip(req.MimeType, len(req.Audio), req.Language)

	res, err := resilience.ExecuteWithResult(ctx, s.bulkhead, func() (*transcription.Result, error) {
		if s.validator != nil {
			if v := s.validator.Validate(ctx, req.Audio, req.MimeType, maxDuration); !v.Valid {
				return nil, v.Err
			}
		}
		return s.stt.Transcribe(ctx, req.toRequest(maxDuration))
	})
	if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
		err = goerrors.ServiceUnavailable("speech-to-text").WithCause(err)
	}
	if err != nil {
		tracked.End(ctx, observability.StatusError, err)
		s.log.WithContext(ctx).Warn("NATS transcription failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldDuration, tracked.Elapsed().Milliseconds(),
		))
		s.replyError(msg, err)
		return
	}
	tracked.End(ctx, observability.StatusOK, nil)
	s.reply(msg, res)
}

// retryConnect retries what a later attempt can fix. Rejected credentials
// cannot be.
func retryConnect(err error) bool {
	if errors.Is(err, nats.ErrAuthorization) || errors.Is(err, nats.ErrAuthExpired) {
		return false
	}
	return resilience.DefaultRetryIf(err)
}

func (s *Service) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Service) reply(msg *nats.Msg, v any) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.replyError(msg, goerrors.Internal(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.log.Warn("NATS reply failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func (s *Service) replyError(msg *nats.Msg, err error) {
	appErr, ok := goerrors.AsAppError(err)
	if !ok {
		appErr = goerrors.Internal(err)
	}
	s.reply(msg, appErr.ToResponse())
}

func (s *Service) shutdownEmbedded() {
	s.mu.Lock()
	ns := s.embedded
	s.embedded = nil
	s.mu.Unlock()
	if ns != nil {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func startEmbedded(port int) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within 5 seconds")
	}
	return ns, nil
}
