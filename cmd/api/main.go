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

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/config"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/handler"
	chatHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/chat"
	historyHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/history"
	personaHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/persona"
	preferencesHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/preferences"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/persona"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/provider"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/conversation"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/mood"
	sentimentService "github.com/pranav-p-pathak/mental-health-chatbot/internal/service/sentiment"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if !cfg.Provider.PrimaryEnabled() {
		appLog.Warn("no GEMINI_KEYS configured; every chat turn will use the fallback provider")
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	rowStore := store.New(cfg.Store, appLog)

	gemini := provider.NewGeminiClient(cfg.Provider, appLog)
	groq := provider.NewGroqClient(cfg.Provider, appLog)
	classifier := sentimentService.NewExtractor(gemini, appLog)
	trend := mood.NewTracker(cfg.Limits.MoodHistoryLimit)

	orchestrator := conversation.NewService(
		personaStore, gemini, groq, classifier, rowStore, trend,
		cfg.Limits.HistoryLimit, appLog,
	)

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, appLog)
	router := handler.NewRouter(handler.Deps{
		Auth:        auth,
		Chat:        chatHandler.New(orchestrator, appLog),
		History:     historyHandler.New(rowStore, trend, cfg.Limits.HistoryLimit, cfg.Limits.MoodHistoryLimit, appLog),
		Preferences: preferencesHandler.New(rowStore, appLog),
		Persona:     personaHandler.New(personaStore),
	})

	startServer(ctx, cfg.Server, router, appLog)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, appLog *logger.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	appLog.Info("backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		appLog.Fatal("server error", "error", err)
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
