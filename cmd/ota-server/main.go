package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/config"
	"github.com/malik-dev28/OTA-AI/internal/conversation"
	"github.com/malik-dev28/OTA-AI/internal/db"
	"github.com/malik-dev28/OTA-AI/internal/flights"
	"github.com/malik-dev28/OTA-AI/internal/llm"
	"github.com/malik-dev28/OTA-AI/internal/logger"
	"github.com/malik-dev28/OTA-AI/internal/reveal"
	"github.com/malik-dev28/OTA-AI/internal/server"
	"github.com/malik-dev28/OTA-AI/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	prompts, err := llm.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	gen, closeGen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	history, closeHistory, err := newHistoryStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	responder := llm.NewResponder(gen, prompts, cfg.ChatTimeout, logger.Component(log, "chat"))
	extractor := llm.NewExtractor(gen, prompts, cfg.ChatTimeout, logger.Component(log, "intent"))

	httpClient := flights.NewHTTPClient(ctx, flights.Credentials{
		Token:        cfg.FlightAPIToken,
		ClientID:     cfg.FlightAPIClientID,
		ClientSecret: cfg.FlightAPIClientSecret,
		TokenURL:     cfg.FlightAPITokenURL,
	}, cfg.FlightAPITimeout)
	flightClient := flights.NewClient(httpClient, cfg.FlightAPIURL, logger.Component(log, "flights"))

	pipeline := conversation.NewPipeline(
		extractor.ForClock(time.Now),
		responder,
		reveal.New(cfg.RevealDelay),
		logger.Component(log, "conversation"),
	)
	pipeline.History = history

	srv := server.NewServer(cfg, server.Deps{
		Responder: responder,
		Extractor: extractor,
		Pipeline:  pipeline,
		Sessions:  conversation.NewRegistry(history, cfg.SessionMaxHistory, cfg.SessionIdleTTL, logger.Component(log, "sessions")),
		Flights:   flightClient,
		History:   history,
	}, logger.Component(log, "http"))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("OTA server listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env), zap.String("llm", cfg.LLMProvider))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newGenerator(ctx context.Context, cfg config.Config) (llm.Generator, func(), error) {
	switch cfg.LLMProvider {
	case "gemini":
		g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	case "openai", "":
		if cfg.OpenAIBaseURL != "" {
			return llm.NewOpenAIWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), func() {}, nil
		}
		return llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// newHistoryStore prefers Postgres, then Redis, then process memory.
func newHistoryStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.HistoryStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.New(ctx, cfg.DatabaseURL, logger.Component(log, "db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.RunMigrations(ctx, db.Migrations, "migrations"); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("history stored in postgres")
		return store.NewDatabaseStore(database, cfg.SessionMaxHistory), func() { database.Close() }, nil
	case cfg.RedisAddr != "":
		rdb := store.NewRedis(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("history stored in redis", zap.String("addr", cfg.RedisAddr))
		return store.NewRedisStore(rdb, cfg.SessionMaxHistory, cfg.RedisTTL), func() { rdb.Close() }, nil
	default:
		log.Warn("DB_URL and REDIS_ADDR not set, history is kept in memory only")
		return store.NewMemoryStore(cfg.SessionMaxHistory, cfg.SessionIdleTTL), func() {}, nil
	}
}
