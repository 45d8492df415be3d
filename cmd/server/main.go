package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RichardoC/inbox/internal/api"
	"github.com/RichardoC/inbox/internal/config"
	"github.com/RichardoC/inbox/internal/controller"
	"github.com/RichardoC/inbox/internal/db"
	"github.com/RichardoC/inbox/internal/llm"
	"github.com/RichardoC/inbox/internal/realtime"
	"github.com/RichardoC/inbox/internal/seed"
	"github.com/RichardoC/inbox/internal/store"
)

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.Log.Development {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	gin.SetMode(gin.ReleaseMode)
	logger, _ := zap.NewProduction()
	return logger
}

func loadSeed(cfg *config.Config) (seed.Dataset, error) {
	if cfg.Seed.File == "" {
		return seed.Demo(), nil
	}
	return seed.LoadFile(cfg.Seed.File)
}

// openStore builds the configured store and loads the seed into it. The
// seed is the initial state only; the sqlite file is reseeded on start.
func openStore(cfg *config.Config, ds seed.Dataset) (store.Store, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		s, err := store.NewMemory(ds)
		return s, func() {}, err
	}

	database, err := db.New(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Load(ds); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, func() { database.Close() }, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ds, err := loadSeed(cfg)
	if err != nil {
		logger.Fatal("failed to load seed data",
			zap.Error(err),
			zap.String("seedFile", cfg.Seed.File))
	}

	s, closeStore, err := openStore(cfg, ds)
	if err != nil {
		logger.Fatal("failed to initialize store",
			zap.Error(err),
			zap.String("driver", cfg.Store.Driver),
			zap.String("dbPath", cfg.Store.Path))
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	opts := []controller.Option{
		controller.WithNotifier(hub),
		controller.WithLogger(logger),
	}
	if cfg.LLM.Enabled {
		suggester, err := llm.New(cfg.LLM.BaseURL, cfg.LLM.Token, cfg.LLM.Model, logger)
		if err != nil {
			logger.Fatal("failed to initialize LLM service", zap.Error(err))
		}
		opts = append(opts, controller.WithSuggester(suggester))
	}

	handler := api.NewHandler(s,
		controller.NewConversationList(s, opts...),
		controller.NewThread(s, opts...),
		logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(handler, hub.Serve, cfg.Web.Dir),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server", zap.Error(err))
		}
	}()

	logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
