package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/application"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/country"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/document"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/health"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/notification"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/prometheus"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/middleware"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups every route owner the router mounts.
type Handlers struct {
	Health       *health.Handler
	Country      *country.Handler
	Application  *application.Handler
	Document     *document.Handler
	Notification *notification.Handler
	Audit        *audit.Handler
	Metrics      *prometheus.Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodySize    int64
	MaxUploadSize  int64
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, log *logger.Logger, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultSizeLimitConfig().MaxBodySize
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 10 << 20
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
	)
	if handlers.Metrics != nil {
		engine.Use(handlers.Metrics.Middleware())
	}
	engine.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORSConfig),
	)
	if config.RateLimit > 0 {
		engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		}).RateLimit())
	}

	return r
}

func (r *Router) Setup() *Router {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
	return r
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	r.handlers.Health.RegisterRoutes(rg)
	if r.handlers.Metrics != nil {
		rg.GET("/health/metrics", r.handlers.Metrics.Handler())
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	limited := rg.Group("")
	limited.Use(middleware.SizeLimit(middleware.SizeLimitConfig{
		MaxBodySize:   r.config.MaxBodySize,
		MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
	}))
	for _, h := range []Handler{
		r.handlers.Country,
		r.handlers.Application,
		r.handlers.Notification,
		r.handlers.Audit,
	} {
		h.RegisterRoutes(limited)
	}

	r.handlers.Document.RegisterRoutes(rg, middleware.SizeLimit(middleware.SizeLimitConfig{
		MaxBodySize:   r.config.MaxUploadSize,
		MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
	}))
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
