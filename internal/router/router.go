package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-checkin/internal/handler/catalog"
	"github.com/jwalitptl/clinic-checkin/internal/handler/checkin"
	"github.com/jwalitptl/clinic-checkin/internal/handler/health"
	"github.com/jwalitptl/clinic-checkin/internal/handler/medical"
	"github.com/jwalitptl/clinic-checkin/internal/middleware"
)

type Router struct {
	engine   *gin.Engine
	checkinH *checkin.Handler
	catalogH *catalog.Handler
	medicalH *medical.Handler
	healthH  *health.Handler
	limiter  *middleware.RateLimiter
	metrics  *routerMetrics
	gatherer prometheus.Gatherer
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	MetricsPrefix    string
	// Registry defaults to the prometheus default registry.
	Registry *prometheus.Registry
}

func NewRouter(
	checkinH *checkin.Handler,
	catalogH *catalog.Handler,
	medicalH *medical.Handler,
	healthH *health.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}

	r := &Router{
		engine:   engine,
		checkinH: checkinH,
		catalogH: catalogH,
		medicalH: medicalH,
		healthH:  healthH,
		metrics:  initRouterMetrics(config.MetricsPrefix, reg),
		gatherer: gatherer,
	}
	if config.RateLimitEnabled {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)
	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	var kiosk []gin.HandlerFunc
	if r.limiter != nil {
		kiosk = append(kiosk, r.limiter.RateLimit())
	}
	r.checkinH.RegisterRoutes(api, kiosk...)
	r.catalogH.RegisterRoutes(api)
	r.medicalH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	if prefix == "" {
		prefix = "checkin_http"
	}
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

// metricsMiddleware labels by route template, never the raw path, so session
// ids do not explode cardinality.
func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
