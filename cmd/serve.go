package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/cache"
	"github.com/franciscosanchezn/bonos-api/internal/config"
	"github.com/franciscosanchezn/bonos-api/internal/database"
	"github.com/franciscosanchezn/bonos-api/internal/server"
)

const (
	shutdownTimeout   = 10 * time.Second
	tokenPurgeEvery   = time.Hour
	readHeaderTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long:  "Start the storefront, the JSON API and the admin console.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemoData {
		if err := database.SeedDemoData(ctx, db); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	store, closeCache := setupCache(ctx, cfg)
	defer closeCache()

	srv, err := server.New(server.Options{Config: cfg, DB: db, Cache: store})
	if err != nil {
		return err
	}

	go purgeExpiredTokens(ctx, db)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           srv.Engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// setupCache connects to Redis when configured. An unreachable Redis only
// disables caching.
func setupCache(ctx context.Context, cfg *config.Config) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.Noop{}, func() {}
	}
	rs := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		log.WithError(err).WithField("redis_addr", cfg.RedisAddr).Warn("Redis unavailable, offer cache disabled")
		_ = rs.Close()
		return cache.Noop{}, func() {}
	}
	log.WithField("redis_addr", cfg.RedisAddr).Info("Offer cache enabled")
	return rs, func() { _ = rs.Close() }
}

// purgeExpiredTokens drops expired OAuth2 access tokens until ctx ends
func purgeExpiredTokens(ctx context.Context, db *gorm.DB) {
	store := auth.NewGormTokenStore(db)
	ticker := time.NewTicker(tokenPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired tokens")
				continue
			}
			if n > 0 {
				log.WithField("tokens", n).Info("Purged expired tokens")
			}
		}
	}
}
