package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/sttkit/audio"
	goerrors "github.com/kbukum/sttkit/errors"
	"github.com/kbukum/sttkit/logger"
	"github.com/kbukum/sttkit/observability"
	"github.com/kbukum/sttkit/server"
	"github.com/kbukum/sttkit/transcription"
	"github.com/kbukum/sttkit/validation"
)

const (
	// FormFieldAudio is the multipart field carrying the clip.
	FormFieldAudio = "audio"
	// HeaderLanguage selects the language for raw-body uploads.
	HeaderLanguage = "X-Language"
)

// Transcriber is the orchestrator surface the handlers need.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
	ProvidersStatus(ctx context.Context) map[string]bool
}

// AudioValidator checks a clip before it reaches the engines.
type AudioValidator interface {
	Validate(ctx context.Context, data []byte, mimeType string, maxDuration time.Duration) audio.ValidationResult
}

// Handler serves the transcription routes.
type Handler struct {
	stt         Transcriber
	validator   AudioValidator
	maxDuration time.Duration
	log         *logger.Logger
}

// NewHandler creates a Handler. validator may be nil to skip the pre-flight
// duration check. maxDuration caps both the pre-flight and per-request
// overrides.
func NewHandler(stt Transcriber, validator AudioValidator, maxDuration time.Duration, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Get("api")
	}
	return &Handler{
		stt:         stt,
		validator:   validator,
		maxDuration: maxDuration,
		log:         log.WithComponent("api"),
	}
}

// Register mounts the routes under /api/v1. limit guards the transcribe
// route and may be nil.
func (h *Handler) Register(r gin.IRouter, limit gin.HandlerFunc) {
	v1 := r.Group("/api/v1")
	if limit != nil {
		v1.POST("/transcribe", limit, h.Transcribe)
	} else {
		v1.POST("/transcribe", h.Transcribe)
	}
	v1.GET("/providers/status", h.ProvidersStatus)
}

// upload is a parsed transcription request.
type upload struct {
	data          []byte
	mimeType      string
	language      string
	maxDurationMs string
}

// Transcribe handles POST /api/v1/transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.WithContext(ctx)

	up, err := h.readUpload(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	observability.RequestFromContext(ctx).Clip(up.mimeType, len(up.data), up.language)

	maxDuration, err := h.validateUpload(up)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if h.validator != nil {
		if res := h.validator.Validate(ctx, up.data, up.mimeType, maxDuration); !res.Valid {
			log.Warn("audio rejected", logger.Fields(
				logger.FieldMimeType, up.mimeType,
				logger.FieldBytes, len(up.data),
				logger.FieldError, res.Err.Error(),
			))
			server.RespondWithError(c, res.Err)
			return
		}
	}

	res, err := h.stt.Transcribe(ctx, transcription.Request{
		Audio:       up.data,
		MimeType:    up.mimeType,
		Language:    up.language,
		MaxDuration: maxDuration,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

// ProvidersStatus handles GET /api/v1/providers/status.
func (h *Handler) ProvidersStatus(c *gin.Context) {
	server.RespondOK(c, h.stt.ProvidersStatus(c.Request.Context()))
}

func (h *Handler) readUpload(c *gin.Context) (*upload, error) {
	up := &upload{
		language:      c.Query("language"),
		maxDurationMs: c.Query("max_duration_ms"),
	}
	if up.language == "" {
		up.language = c.GetHeader(HeaderLanguage)
	}

	mediaType, _, _ := mime.ParseMediaType(c.ContentType())
	if mediaType == "multipart/form-data" {
		fh, err := c.FormFile(FormFieldAudio)
		if err != nil {
			if isTooLarge(err) {
				return nil, err
			}
			return nil, goerrors.MissingField(FormFieldAudio)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, goerrors.InvalidAudio("cannot read uploaded file")
		}
		defer f.Close()
		if up.data, err = io.ReadAll(f); err != nil {
			return nil, err
		}
		up.mimeType = fh.Header.Get("Content-Type")
		if v := c.PostForm("language"); v != "" {
			up.language = v
		}
		if v := c.PostForm("max_duration_ms"); v != "" {
			up.maxDurationMs = v
		}
	} else {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		up.data = data
		up.mimeType = c.GetHeader("Content-Type")
	}

	return up, nil
}

// validateUpload checks the request fields and resolves the duration cap.
func (h *Handler) validateUpload(up *upload) (time.Duration, error) {
	v := validation.New()
	v.Custom(len(up.data) > 0, FormFieldAudio, "is required")
	if up.language != "" {
		v.MaxLength("language", up.language, 35).
			LanguageTag("language", up.language)
	}

	limitMs := int(h.maxDuration.Milliseconds())
	maxDuration := h.maxDuration
	if up.maxDurationMs != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(up.maxDurationMs))
		if err != nil {
			v.AddError("max_duration_ms", "must be an integer")
		} else {
			if limitMs > 0 {
				v.Range("max_duration_ms", ms, 1, limitMs)
			} else {
				v.Custom(ms > 0, "max_duration_ms", "must be positive")
			}
			maxDuration = time.Duration(ms) * time.Millisecond
		}
	}

	if err := v.Err(); err != nil {
		return 0, err
	}
	return maxDuration, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
