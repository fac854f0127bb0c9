package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hirewire/warden/internal/config"
	"github.com/hirewire/warden/internal/database"
	"github.com/hirewire/warden/internal/jobs"
	"github.com/hirewire/warden/internal/logger"
	"github.com/hirewire/warden/internal/server"
	"github.com/hirewire/warden/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "warden.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	// Log to both stdout and file
	logger.Init(cfg.IsDevelopment(), io.MultiWriter(os.Stdout, rotator))
	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	if cfg.JWTSecret == "" {
		logger.Log().Fatal("WARDEN_JWT_SECRET must be set")
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log().Fatalf("open database: %v", err)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logger.Log().Fatalf("build server: %v", err)
	}

	if email := os.Getenv("WARDEN_ADMIN_EMAIL"); email != "" {
		if err := srv.Deps.Auth.EnsureAdmin(email, os.Getenv("WARDEN_ADMIN_PASSWORD")); err != nil {
			logger.Log().Fatalf("ensure admin account: %v", err)
		}
	}

	sweeper := jobs.NewSweeper(srv.Deps.Limiter, srv.Deps.Blocks)
	if err := sweeper.Start(); err != nil {
		logger.Log().Fatalf("start sweeper: %v", err)
	}
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		logger.Log().Fatalf("server error: %v", err)
	}
}
