package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/config"
	"github.com/zhouzirui/mock-interview/backend/internal/handler"
	"github.com/zhouzirui/mock-interview/backend/internal/model/persona"
	"github.com/zhouzirui/mock-interview/backend/internal/service/ai"
	"github.com/zhouzirui/mock-interview/backend/internal/service/conversation"
	"github.com/zhouzirui/mock-interview/backend/internal/service/interview"
	"github.com/zhouzirui/mock-interview/backend/internal/service/session"
	"github.com/zhouzirui/mock-interview/backend/internal/service/speech"
	"github.com/zhouzirui/mock-interview/backend/pkg/logger"
	"github.com/zhouzirui/mock-interview/backend/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Env:      cfg.Log.Env,
		Level:    cfg.Log.Level,
		FilePath: cfg.Log.FilePath,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	}, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			zlog.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	candidate, err := persona.LoadFile(cfg.Persona.File)
	if err != nil {
		zlog.Fatal("failed to load persona", zap.Error(err))
	}
	zlog.Info("persona loaded", zap.String("id", candidate.ID), zap.String("name", candidate.Name))

	store, closeStore, err := session.Open(ctx, session.Options{
		Backend:         cfg.Session.Store,
		TTL:             cfg.Session.TTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		RedisURL:        cfg.Session.RedisURL,
	}, candidate.PrimingPair)
	if err != nil {
		zlog.Fatal("failed to open session store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			zlog.Warn("session store close failed", zap.Error(err))
		}
	}()
	zlog.Info("session store ready", zap.String("backend", cfg.Session.Store))

	provider, err := speech.NewTranscriber(&cfg.Speech, zlog.Named("speech"))
	if err != nil {
		zlog.Fatal("failed to initialize transcription provider", zap.Error(err))
	}
	gateway := speech.NewGateway(provider,
		speech.WithTimeout(cfg.Speech.Timeout),
		speech.WithLanguage(cfg.Speech.ASRLanguage),
		speech.WithLogger(zlog.Named("speech")))
	zlog.Info("transcription provider ready", zap.String("provider", cfg.Speech.Provider))

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		zlog.Fatal("failed to initialize answer generator", zap.Error(err))
	}
	zlog.Info("answer generator ready", zap.String("provider", cfg.AI.Provider))

	engine := conversation.NewEngine(store, generator, candidate, cfg.AI.Timeout, zlog.Named("conversation"))
	orchestrator := interview.NewOrchestrator(gateway, engine, zlog.Named("interview"))

	router := handler.NewRouter(handler.Deps{
		Persona:      candidate,
		Orchestrator: orchestrator,
		Transcripts:  engine,
		Logger:       zlog.Named("http"),
	})

	startServer(ctx, cfg.Server, router, zlog)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zlog *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zlog.Info("interview backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		zlog.Error("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
