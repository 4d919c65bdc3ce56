package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/middleware"
	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

type HandlersConfig struct {
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
}

type RouterDeps struct {
	Config         *config.AppConfig
	Logger         *logger.Logger
	Metrics        *telemetry.AppMetrics
	RateLimitStore port.RateLimitStore
}

func SetupRouterWithConfig(handlers HandlersConfig, deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	if httpsEnforcer := middleware.NewHTTPSEnforcer(deps.Config.EnforceHTTPS, deps.Logger); httpsEnforcer.IsEnabled() {
		router.Use(httpsEnforcer.HTTPSMiddleware())
	}

	router.Use(otelgin.Middleware(deps.Config.ServiceName))
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	if deps.Config.RateLimitEnabled && deps.RateLimitStore != nil {
		rateLimiter := middleware.NewRateLimiter(deps.RateLimitStore, deps.Config.RateLimitConfigs, deps.Logger, deps.Metrics)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	setupRoutes(router, handlers)

	return router
}

// SetupRouterForTests registers the routes behind recovery only.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CurrentMiddleware())

	setupRoutes(router, handlers)

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig) {
	if handlers.TodoHandler != nil {
		router.GET("/", handlers.TodoHandler.List)
		router.POST("/add", handlers.TodoHandler.Add)
		router.POST("/delete", handlers.TodoHandler.Delete)

		api := router.Group("/api")
		{
			api.GET("/todos", handlers.TodoHandler.ApiList)
		}
	}

	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
	}
}
