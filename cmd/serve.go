package main

import (
	"CaseComments/internal/assist"
	"CaseComments/internal/cache"
	"CaseComments/internal/models"
	"CaseComments/internal/repository"
	"CaseComments/internal/router"
	"CaseComments/internal/router/handlers"
	"CaseComments/internal/router/middleware"
	"CaseComments/internal/service"
	"CaseComments/pkg/logger"
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, closeStore, err := buildService(log)
	if err != nil {
		return err
	}
	defer closeStore()

	var completer handlers.Completer
	if cfg.OpenAIAPIKey != "" {
		a, err := assist.NewOpenAI(assist.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}, log)
		if err != nil {
			return err
		}
		completer = a
	} else {
		log.Warn("OpenAI API key not set, /api/openai will answer 503")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	rout := router.NewRouter(cfg.GinMode, handlers.NewCommentHandler(svc), handlers.NewAssistHandler(completer), limiter, log)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: rout.GetEngine(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to listen and serve", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// buildService opens the configured store and wraps it in the comment service.
func buildService(log *zap.Logger) (*service.Service, func(), error) {
	var (
		repo       service.Repository
		err        error
		closeStore = func() {}
	)
	switch cfg.Storage {
	case "memory":
		repo = repository.NewMemoryRepository()
	case "sqlite":
		repo, err = repository.NewSQLiteRepository(cfg.SQLitePath, log)
	case "postgres":
		repo, err = repository.NewRepository(cfg.MasterDSN, cfg.SlaveDSNs, cfg.MigratePath, log)
	default:
		err = fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		log.Error("Failed to open comment store", zap.String("storage", cfg.Storage), zap.Error(err))
		return nil, nil, err
	}
	if c, ok := repo.(io.Closer); ok {
		closeStore = func() {
			if err := c.Close(); err != nil {
				log.Warn("Failed to close comment store", zap.Error(err))
			}
		}
	}

	var listCache *cache.Cache[[]*models.Comment]
	if cfg.CacheSize > 0 {
		listCache, err = cache.New[[]*models.Comment](cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	return service.NewService(repo, listCache, log), closeStore, nil
}
