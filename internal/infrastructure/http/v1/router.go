// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"kinfilter/internal/core/locale"
	"kinfilter/internal/core/tx"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/http/v1/handlers"
	"kinfilter/internal/infrastructure/http/v1/middleware"
	"kinfilter/internal/infrastructure/storage/postgres"
	"kinfilter/pkg/logger"
)

// RoleAdHoc allows running filters defined in the request body.
const RoleAdHoc = "filter:adhoc"

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database behind DB, for health checks. Nil for in-memory data.
	Pool *postgres.Pool

	// DB is the record store filters run against
	DB record.Database

	// Snapshotter gives every batch one consistent view of DB
	Snapshotter tx.Snapshotter

	// Library holds the custom filters
	Library *filter.Library

	// Runner serializes batch runs over Library filters. Defaults to a new runner.
	Runner *filter.Runner

	// Catalog translates display names
	Catalog *locale.Catalog

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation. Nil disables authentication.
	JWTValidator middleware.JWTValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Snapshotter == nil {
		cfg.Snapshotter = tx.None{}
	}
	if cfg.Catalog == nil {
		cfg.Catalog = locale.Builtin()
	}
	if cfg.Runner == nil {
		cfg.Runner = filter.NewRunner()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	adHoc := []gin.HandlerFunc{}
	if cfg.JWTValidator != nil {
		v1.Use(middleware.Auth(cfg.JWTValidator))
		adHoc = append(adHoc, middleware.RequireRole(RoleAdHoc))
	}
	v1.Use(middleware.Locale(cfg.Catalog))

	registerFilterRoutes(v1, cfg, adHoc)

	return router
}

// registerFilterRoutes registers filter and rule class endpoints.
func registerFilterRoutes(rg *gin.RouterGroup, cfg RouterConfig, adHoc []gin.HandlerFunc) {
	h := handlers.NewFilterHandler(handlers.NewBaseHandler(), cfg.Library, cfg.DB, cfg.Snapshotter, cfg.Runner)

	filters := rg.Group("/filters/:namespace")
	{
		filters.GET("", h.List)
		filters.POST("/apply", append(adHoc, h.ApplyAdHoc)...)
		filters.GET("/:name", h.Get)
		filters.POST("/:name/apply", h.Apply)
	}

	rg.GET("/rules/:namespace", h.RuleClasses)
}
