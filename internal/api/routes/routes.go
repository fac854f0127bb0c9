package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/api/handlers"
	"github.com/hirewire/warden/internal/api/middleware"
	"github.com/hirewire/warden/internal/config"
	"github.com/hirewire/warden/internal/database"
	"github.com/hirewire/warden/internal/gateway"
	"github.com/hirewire/warden/internal/metrics"
	"github.com/hirewire/warden/internal/services"
)

// Deps bundles the long-lived collaborators the route layer needs so the
// caller controls their lifecycle (the event writer and cron sweeps outlive
// individual requests).
type Deps struct {
	Gateway *gateway.Gateway
	Limiter gateway.RateLimitStore
	Blocks  *services.BlockService
	Events  *services.EventService
	Alerts  *services.AlertService
	Auth    *services.AuthService
}

// Build constructs the service graph for the given DB and config.
func Build(db *gorm.DB, cfg config.Config) Deps {
	notifier := services.NewNotificationService(cfg.NotificationURLs)
	alerts := services.NewAlertService(db, notifier)
	events := services.NewEventService(db, alerts, cfg.Gateway.EventQueueSize)
	blocks := services.NewBlockService(db)
	limiter := gateway.NewMemoryRateLimitStore()

	return Deps{
		Gateway: gateway.New(cfg.Gateway, blocks, limiter, events),
		Limiter: limiter,
		Blocks:  blocks,
		Events:  events,
		Alerts:  alerts,
		Auth:    services.NewAuthService(db, cfg.JWTSecret),
	}
}

// Register wires up API routes, migrations and metrics.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/api/v1/health", handlers.HealthHandler)

	var compliance services.ComplianceProvider
	if cfg.ComplianceURL != "" {
		compliance = services.NewHTTPComplianceProvider(cfg.ComplianceURL)
	} else {
		compliance = &services.StaticComplianceProvider{Value: services.DefaultComplianceReport()}
	}
	dashboard := services.NewDashboardService(deps.Events, deps.Blocks, deps.Alerts, compliance)

	authHandler := handlers.NewAuthHandler(deps.Auth)
	securityHandler := handlers.NewSecurityHandler(deps.Blocks, deps.Events, deps.Alerts, dashboard)

	api := router.Group("/api/v1")

	// The gateway admission pipeline guards everything under /api/v1,
	// management routes included.
	api.Use(deps.Gateway.Middleware())

	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/security")
	protected.Use(middleware.AuthRequired(deps.Auth))
	{
		protected.POST("/actions", securityHandler.PostAction)
		protected.GET("/dashboard", securityHandler.GetDashboard)
		protected.GET("/events", securityHandler.ListEvents)
		protected.GET("/alerts", securityHandler.ListAlerts)
		protected.GET("/blocks", securityHandler.ListBlocks)
	}

	return nil
}
