package cli

import (
	"CommentUI/internal/config"
	"CommentUI/internal/repository"
	"CommentUI/internal/router"
	"CommentUI/internal/router/handlers"
	"CommentUI/internal/service"
	"CommentUI/internal/session"
	"CommentUI/internal/web"
	"CommentUI/pkg/logger"
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
		return err
	}
	defer store.Close()

	repo, err := newRepository(cfg, log)
	if err != nil {
		return err
	}
	render, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	opts := router.Options{
		SessionMaxAge: int(cfg.Session.TTL.Seconds()),
		CookieSecure:  cfg.Session.CookieSecure,
	}
	if cfg.API.Proxy {
		if opts.APIProxy, err = router.NewAPIProxy(cfg.API.BaseURL, log); err != nil {
			return err
		}
	}

	serviceComment := service.NewService(repo, store, log)
	handlersComment := handlers.NewCommentHandler(serviceComment, render, log)
	rout := router.NewRouter(cfg.GinMode, handlersComment, opts, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rout.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("api", cfg.APIRoot()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to listen and serve", zap.Error(err))
			return fmt.Errorf("failed to listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		log.Info("Using redis session store")
		return session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
	default:
		store := session.NewMemoryStore(cfg.Session.TTL)
		go store.RunSweeper(ctx, sweepInterval)
		return store, nil
	}
}

func newRepository(cfg *config.Config, log *zap.Logger) (*repository.Repository, error) {
	author := repository.Author{Name: cfg.Author.Name, UserID: cfg.Author.UserID}
	repo, err := repository.NewRepository(cfg.APIRoot(), cfg.API.Timeout, author, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	return repo, nil
}
