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

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub-api/internal/config"
	"github.com/yukikurage/taskhub-api/internal/database"
	"github.com/yukikurage/taskhub-api/internal/logger"
	"github.com/yukikurage/taskhub-api/internal/repository"
	"github.com/yukikurage/taskhub-api/internal/router"
	"github.com/yukikurage/taskhub-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	services *services.Services
}

// bootstrap loads configuration, opens and migrates the database and wires
// the services shared by every command.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.Init(logger.Config{
		Level: cfg.LogLevel,
		Dev:   cfg.LogDev,
		File:  cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	for _, name := range cfg.GeneratedSecrets {
		log.Warn("secret not configured, generated one for this process", zap.String("name", name))
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	tokens, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}

	svcs := services.New(repository.NewStore(db), services.NewBcryptHasher(0), tokens, services.Options{
		Roles: services.RolePolicy{
			AllowAdminDemotion: cfg.AllowAdminDemotion,
			AllowSelfDemotion:  cfg.AllowSelfDemotion,
		},
		Logger: log,
	})

	return &app{cfg: cfg, log: log, db: db, services: svcs}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	gin.SetMode(a.cfg.GinMode)

	if a.cfg.AdminPassword != "" {
		if _, err := a.services.Auth.EnsureAdmin(parent, a.cfg.AdminUsername, a.cfg.AdminEmail, a.cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
	}

	store, err := router.NewSessionStore(a.cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: a.cfg.HTTPAddr,
		Handler: router.New(router.Deps{
			Config:       a.cfg,
			DB:           a.db,
			Services:     a.services,
			SessionStore: store,
			Logger:       a.log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}
