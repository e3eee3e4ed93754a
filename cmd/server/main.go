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

	"github.com/soaringjerry/moodtrack/internal/agent"
	"github.com/soaringjerry/moodtrack/internal/api"
	"github.com/soaringjerry/moodtrack/internal/config"
	dbstore "github.com/soaringjerry/moodtrack/internal/db"
	"github.com/soaringjerry/moodtrack/internal/logger"
	"github.com/soaringjerry/moodtrack/internal/middleware"
	"github.com/soaringjerry/moodtrack/internal/predict"
	"github.com/soaringjerry/moodtrack/internal/services"
)

func main() {
	cfg, err := config.Load(os.Getenv("MOOD_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := logger.New(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("close store", "error", cerr)
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	chatAgent, err := buildAgent(cfg)
	if err != nil {
		return err
	}

	authn := middleware.NewAuthenticator(cfg.Auth.JWTSecret)
	repo := services.NewStudyRepository(store, log)
	history := services.NewHistoryLog(store, log)
	router := api.NewRouter(api.Deps{
		Repo:      repo,
		Consent:   services.NewConsentService(repo),
		PHQ:       services.NewPHQService(repo),
		EMA:       services.NewEMAService(repo, loc),
		Report:    services.NewReportService(repo, loc),
		Screening: services.NewScreeningService(predict.NewClient(cfg.Predict.BaseURL, cfg.Predict.Timeout), history),
		Chat:      services.NewChatService(chatAgent, history, log),
		History:   history,
		Auth:      services.NewAuthService(authn.Sign, cfg.Auth.TokenTTL, cfg.Auth.ResearcherEmail, cfg.Auth.ResearcherPasswordHash),
		Log:       log,
		Commit:    cfg.Commit,
	})

	mux := http.NewServeMux()
	router.Register(mux)
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	var handler http.Handler = mux
	handler = middleware.RequestLog(log)(handler)
	handler = authn.WithAuth(handler)
	handler = middleware.Locale(handler)
	handler = middleware.NoStore("/api/")(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Predict.Timeout + 30*time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("moodtrack server listening", "addr", cfg.Addr, "store", cfg.Store.Driver, "agent", cfg.Chat.Agent, "commit", cfg.Commit)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (api.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		if err := MigrateIfNeeded(ctx, cfg.Store.SnapshotPath, cfg.Store.SQLitePath, cfg.Store.MigrationsDir, log); err != nil {
			return nil, fmt.Errorf("migrate legacy snapshot: %w", err)
		}
		return dbstore.OpenSQLite(ctx, cfg.Store.SQLitePath, cfg.Store.MigrationsDir)
	case "redis":
		return dbstore.OpenRedis(ctx, dbstore.RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
			Prefix:   cfg.Store.RedisPrefix,
		})
	default:
		return api.NewMemoryStoreFromPath(cfg.Store.SnapshotPath)
	}
}

func buildAgent(cfg *config.Config) (services.Agent, error) {
	switch cfg.Chat.Agent {
	case "openai":
		return agent.NewOpenAI(cfg.Chat.APIKey, cfg.Chat.Model), nil
	case "keyword", "":
		return agent.NewKeyword(), nil
	default:
		return nil, fmt.Errorf("unknown chat agent %q", cfg.Chat.Agent)
	}
}
