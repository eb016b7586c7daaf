// Package conversation runs one interview turn against a session's history.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/apperror"
	convmodel "github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
	"github.com/zhouzirui/mock-interview/backend/internal/model/persona"
	"github.com/zhouzirui/mock-interview/backend/internal/service/ai"
	"github.com/zhouzirui/mock-interview/backend/internal/service/session"
)

const (
	msgGenerationFailed = "Failed to generate answer"
	msgEmptyAnswer      = "Model returned an empty answer"
)

// RedactedDefinition replaces the persona definition in transcripts.
const RedactedDefinition = "[persona definition withheld]"

// Engine owns the read-modify-write cycle of a session.
type Engine struct {
	store     session.Store
	locks     *session.KeyedMutex
	generator ai.Generator
	persona   persona.Persona
	timeout   time.Duration
	logger    *zap.Logger
}

// NewEngine wires the engine. A zero timeout leaves generation unbounded.
func NewEngine(store session.Store, generator ai.Generator, p persona.Persona, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		locks:     session.NewKeyedMutex(),
		generator: generator,
		persona:   p,
		timeout:   timeout,
		logger:    logger,
	}
}

// Answer generates the persona's reply to question and appends the pair to the session.
// Nothing is written unless generation succeeds.
func (e *Engine) Answer(ctx context.Context, sessionID, question string) (string, error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return "", apperror.Internal("Failed to process interview", err)
	}
	defer unlock()

	history, err := e.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return "", apperror.Internal("Failed to load session", err)
	}

	genCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	answer, err := e.generator.Generate(genCtx, history, question)
	if err != nil {
		return "", apperror.Generation(msgGenerationFailed, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", apperror.Generation(msgEmptyAnswer, nil)
	}

	next := append(history, convmodel.UserTurn(question), convmodel.ModelTurn(answer))
	if err := e.store.Replace(ctx, sessionID, next); err != nil {
		return "", apperror.Internal("Failed to save session", err)
	}

	e.logger.Info("answer generated",
		zap.String("session", sessionID),
		zap.Int("turns", len(next)),
		zap.Int("answer_len", len(answer)),
		zap.Duration("latency", time.Since(started)))
	return answer, nil
}

// Greet resets the session to the greeting priming pair and returns the canned greeting.
func (e *Engine) Greet(ctx context.Context, sessionID string) (string, error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return "", apperror.Internal("Failed to process interview", err)
	}
	defer unlock()

	if err := e.store.Replace(ctx, sessionID, e.persona.GreetingPair()); err != nil {
		return "", apperror.Internal("Failed to save session", err)
	}

	e.logger.Info("session greeted", zap.String("session", sessionID))
	return e.persona.Greeting, nil
}

// Transcript returns the stored turns without seeding the session.
// The persona definition in the priming turn is redacted.
func (e *Engine) Transcript(ctx context.Context, sessionID string) (*convmodel.Session, bool, error) {
	turns, found, err := e.store.Lookup(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup session %s: %w", sessionID, err)
	}
	if !found {
		return nil, false, nil
	}
	for i := range turns {
		if turns[i].Role == convmodel.RoleUser && turns[i].Text == e.persona.Definition {
			turns[i].Text = RedactedDefinition
		}
	}
	return &convmodel.Session{ID: sessionID, Turns: turns}, true, nil
}
