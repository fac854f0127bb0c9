package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/api/middleware"
	"github.com/hirewire/warden/internal/api/routes"
	"github.com/hirewire/warden/internal/config"
)

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine
	Deps   routes.Deps
	cfg    config.Config
}

// New wires up the HTTP router and registers versioned routes.
func New(db *gorm.DB, cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery(cfg.IsDevelopment()))

	deps := routes.Build(db, cfg)
	if err := routes.Register(router, db, cfg, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Server{Engine: router, Deps: deps, cfg: cfg}, nil
}

// Run starts the HTTP server with proper shutdown semantics. The event
// writer is started alongside and drained after the listener stops.
func (s *Server) Run(ctx context.Context) error {
	s.Deps.Events.Start()
	defer s.Deps.Events.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
