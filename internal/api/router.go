package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/handlers"
	"github.com/charlesng35/taskhub/internal/middleware"
	"github.com/charlesng35/taskhub/internal/services"
)

// Config tunes router behavior.
type Config struct {
	// AuthRateLimit caps login/register attempts per client per window.
	AuthRateLimit int
	// AuthRateWindow is the fixed window for the auth limiter.
	AuthRateWindow time.Duration
	// ExposeMetrics mounts the Prometheus endpoint when set.
	ExposeMetrics bool
}

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(db *gorm.DB, jwtService *auth.JWTService, cfg Config) (*gin.Engine, error) {
	auditService, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("api: audit service: %w", err)
	}
	userService, err := services.NewUserService(db, auditService)
	if err != nil {
		return nil, fmt.Errorf("api: user service: %w", err)
	}
	teamService, err := services.NewTeamService(db, auditService)
	if err != nil {
		return nil, fmt.Errorf("api: team service: %w", err)
	}
	taskService, err := services.NewTaskService(db, auditService)
	if err != nil {
		return nil, fmt.Errorf("api: task service: %w", err)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(),
	)

	authHandler := handlers.NewAuthHandler(userService, jwtService)
	teamHandler := handlers.NewTeamHandler(teamService)
	taskHandler := handlers.NewTaskHandler(taskService)
	healthHandler := handlers.NewHealthHandler(db)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	apiGroup := router.Group("/api")
	registerHealthRoutes(router, healthHandler)
	registerAuthRoutes(apiGroup, authHandler, jwtService, authLimiter)
	registerTeamRoutes(apiGroup, teamHandler, jwtService)
	registerTaskRoutes(apiGroup, taskHandler, jwtService)

	if cfg.ExposeMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router, nil
}
