// Package interview handles one interview request end to end.
package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/apperror"
	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
	"github.com/zhouzirui/mock-interview/backend/internal/service/encoder"
)

// ActionGreeting selects the bootstrap path.
const ActionGreeting = "greeting"

const msgNoAudio = "No audio file provided"

// Transcriber turns uploaded audio into question text.
type Transcriber interface {
	Transcribe(ctx context.Context, sessionID string, audio []byte, mimeType, filename string) (string, error)
}

// Conversation answers questions and bootstraps sessions.
type Conversation interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
	Greet(ctx context.Context, sessionID string) (string, error)
}

// Request is one decoded interview upload.
type Request struct {
	Action    string
	SessionID string
	Audio     []byte
	MimeType  string
	Filename  string
}

// Response is returned to the client. Question is null for greetings, and
// AudioURL carries the answer text as a data reference, not audio.
type Response struct {
	Question  *string `json:"question"`
	Answer    string  `json:"answer"`
	AudioURL  string  `json:"audioUrl"`
	SessionID string  `json:"sessionId,omitempty"`
}

// Orchestrator sequences transcription, generation and encoding.
type Orchestrator struct {
	transcriber  Transcriber
	conversation Conversation
	logger       *zap.Logger
}

// NewOrchestrator wires the pipeline stages.
func NewOrchestrator(transcriber Transcriber, conv Conversation, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{transcriber: transcriber, conversation: conv, logger: logger}
}

// Handle runs the request. Every returned error is an *apperror.Error.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Response, error) {
	sessionID := conversation.NormalizeSessionID(req.SessionID)
	started := time.Now()

	if req.Action == ActionGreeting {
		var greeting, payload string
		err := o.stage(ctx, "interview.greeting", sessionID, func(ctx context.Context) (err error) {
			if greeting, err = o.conversation.Greet(ctx, sessionID); err != nil {
				return err
			}
			payload, err = encoder.Encode(greeting)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &Response{Answer: greeting, AudioURL: payload}, nil
	}

	if len(req.Audio) == 0 {
		err := apperror.Input(msgNoAudio)
		o.logger.Info("rejected request", zap.String("session", sessionID), zap.Error(err))
		return nil, err
	}

	var question, answer, payload string
	err := o.stage(ctx, "interview.transcribe", sessionID, func(ctx context.Context) (err error) {
		question, err = o.transcriber.Transcribe(ctx, sessionID, req.Audio, req.MimeType, req.Filename)
		return err
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("question transcribed", zap.String("session", sessionID), zap.String("question", question))

	err = o.stage(ctx, "interview.generate", sessionID, func(ctx context.Context) (err error) {
		answer, err = o.conversation.Answer(ctx, sessionID, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, "interview.encode", sessionID, func(context.Context) (err error) {
		payload, err = encoder.Encode(answer)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("interview turn completed",
		zap.String("session", sessionID),
		zap.Duration("latency", time.Since(started)))

	return &Response{
		Question:  &question,
		Answer:    answer,
		AudioURL:  payload,
		SessionID: sessionID,
	}, nil
}

// stage runs fn inside a span, recovers panics and normalises the error.
func (o *Orchestrator) stage(ctx context.Context, name, sessionID string, fn func(context.Context) error) (err error) {
	ctx, span := otel.Tracer("interview").Start(ctx, name)
	span.SetAttributes(attribute.String("interview.session_id", sessionID))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = apperror.Internal("Failed to process interview", fmt.Errorf("panic in %s: %v", name, r))
		}
		if err == nil {
			return
		}

		err = normalize(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.PublicMessage(err))
		o.logger.Error("interview stage failed",
			zap.String("stage", name),
			zap.String("session", sessionID),
			zap.String("kind", string(apperror.KindOf(err))),
			zap.Error(err))
	}()

	return fn(ctx)
}

func normalize(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Internal("Failed to process interview", err)
}
