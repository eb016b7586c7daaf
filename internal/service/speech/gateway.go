package speech

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/apperror"
	speechmodel "github.com/zhouzirui/mock-interview/backend/internal/model/speech"
)

const (
	msgTranscriptionFailed = "Transcription failed"
	msgNoText              = "No text transcribed from audio"
)

// Transcriber is a speech-to-text provider. Transcribe blocks until the job reaches a terminal status.
type Transcriber interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
}

// Gateway turns uploaded audio into question text.
type Gateway struct {
	provider Transcriber
	timeout  time.Duration
	language string
	logger   *zap.Logger
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithLanguage sets the language hint passed to the provider.
func WithLanguage(lang string) GatewayOption {
	return func(g *Gateway) { g.language = lang }
}

// WithLogger attaches a logger for provider failures.
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway wraps a provider.
func NewGateway(provider Transcriber, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider: provider,
		timeout:  30 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Transcribe returns the recognised text. Provider failures and empty results are transcription errors.
func (g *Gateway) Transcribe(ctx context.Context, sessionID string, audio []byte, mimeType, filename string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.Transcribe(ctx, &speechmodel.ASRRequest{
		SessionID: sessionID,
		Audio:     audio,
		Format:    InferFormat(mimeType, filename),
		Language:  g.language,
	})
	if err != nil {
		g.logger.Warn("transcription provider failed", zap.String("session", sessionID), zap.Error(err))
		return "", apperror.Transcription(msgTranscriptionFailed, err)
	}
	if resp == nil || resp.Status == speechmodel.StatusError {
		detail := ""
		if resp != nil {
			detail = resp.Error
		}
		g.logger.Warn("transcription job reported error", zap.String("session", sessionID), zap.String("detail", detail))
		return "", apperror.Transcription(msgTranscriptionFailed, nil)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", apperror.Transcription(msgNoText, nil)
	}
	return text, nil
}

// InferFormat maps a MIME type such as "audio/webm;codecs=opus" or a filename extension to a short format name.
func InferFormat(mimeType, filename string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		if sub, ok := strings.CutPrefix(mediaType, "audio/"); ok && sub != "" {
			return normalizeFormat(sub)
		}
		if mediaType == "video/webm" {
			return "webm"
		}
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return normalizeFormat(ext)
	}
	return "webm"
}

func normalizeFormat(sub string) string {
	switch sub {
	case "mpeg", "mpeg3", "x-mpeg-3":
		return "mp3"
	case "x-wav", "wave", "vnd.wave":
		return "wav"
	case "x-m4a", "mp4":
		return "m4a"
	default:
		return sub
	}
}
