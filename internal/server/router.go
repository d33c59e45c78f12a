// Package server assembles the HTTP router and runs it.
package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/task-user-api/internal/handlers"
	"github.com/yukikurage/task-user-api/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterOptions toggles the optional middleware.
type RouterOptions struct {
	Logger         *slog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
	Tracing        bool
}

// NewRouter builds the gin engine serving the API, health and metrics.
func NewRouter(opts RouterOptions, tasks *handlers.TaskHandler, users *handlers.UserHandler) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(cors.Default())
	if opts.Tracing {
		r.Use(otelgin.Middleware(handlers.ServiceName))
	}

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	handlers.RegisterRoutes(api, tasks, users)

	r.NoRoute(handlers.NoRoute)
	return r
}
