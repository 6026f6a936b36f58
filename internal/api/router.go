package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/api/admin"
	analyticsHandler "github.com/samirwankhede/stayinsights/internal/api/analytics"
	"github.com/samirwankhede/stayinsights/internal/api/auth"
	"github.com/samirwankhede/stayinsights/internal/app"
	"github.com/samirwankhede/stayinsights/internal/config"
	"github.com/samirwankhede/stayinsights/internal/middleware"
	authService "github.com/samirwankhede/stayinsights/internal/service/auth"
	exportsService "github.com/samirwankhede/stayinsights/internal/service/exports"
)

// Deps are the services the HTTP layer is built on. Auth and Exports are
// optional: their routes are only mounted when set.
type Deps struct {
	Engine  *app.Engine
	Auth    *authService.AuthService
	Exports *exportsService.ExportService
	// Limiter backs the shared rate limit; nil falls back to in-process.
	Limiter *redis.Client
}

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(r *gin.Engine, log *zap.Logger, cfg config.Config, deps Deps) {
	r.Use(middleware.MetricsMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Stay Insights",
			"description": "Monthly revenue, occupancy and booking-source analytics for short-stay properties.",
			"version":     "1.0.0",
			"docs":        "/docs",
			"endpoints":   []string{"/v1/health", "/v1/auth", "/v1/analytics", "/admin"},
		})
	})
	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterDocs(r)

	// Identify first so the limiter buckets authenticated callers per user.
	r.Use(middleware.Identify(cfg.JWTSigningSecret))
	if deps.Limiter != nil {
		r.Use(middleware.RedisRateLimit(deps.Limiter, 600, time.Minute))
	} else {
		r.Use(middleware.RateLimit(50, 100))
	}

	e := deps.Engine
	analyticsHandler.NewAnalyticsHandler(log, e.Service, cfg.JWTSigningSecret).Register(r)
	admin.NewAdminHandler(log, e.Scopes, e.Directory, cfg.ElevatedRoles, cfg.JWTSigningSecret).Register(r)
	if deps.Auth != nil {
		auth.NewAuthHandler(log, deps.Auth, cfg.JWTSigningSecret).Register(r)
	}
	if deps.Exports != nil {
		analyticsHandler.NewExportsHandler(log, deps.Exports, e.Scopes.IsElevated, cfg.JWTSigningSecret).Register(r)
	}
}
