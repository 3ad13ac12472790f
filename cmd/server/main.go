package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/taskhub/internal/api"
	"github.com/charlesng35/taskhub/internal/app"
	"github.com/charlesng35/taskhub/internal/app/maintenance"
	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/database"
	"github.com/charlesng35/taskhub/internal/services"
	"github.com/charlesng35/taskhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "taskhub: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := app.Load(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Logging); err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	log := logger.WithModule("server")

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth.JWT.Secret,
		auth.WithIssuer(cfg.Auth.JWT.Issuer),
		auth.WithTTL(cfg.Auth.JWT.TTL),
	)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(db, jwtService, api.Config{
		AuthRateLimit:  cfg.Server.AuthRateLimit,
		AuthRateWindow: cfg.Server.AuthRateWindow,
		ExposeMetrics:  cfg.Monitoring.ExposeMetrics,
	})
	if err != nil {
		return err
	}

	if cfg.Maintenance.Enabled {
		auditService, err := services.NewAuditService(db)
		if err != nil {
			return err
		}
		cleaner, err := maintenance.NewCleaner(auditService,
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
		)
		if err != nil {
			return err
		}
		if err := cleaner.Start(); err != nil {
			return err
		}
		defer cleaner.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}
