package router

import (
	"context"
	"net/http"

	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/gcci/certgen/internal/infrastructure/logger"
	"github.com/gcci/certgen/internal/infrastructure/telemetry"
	"github.com/gcci/certgen/internal/interfaces/http/handler"
	"github.com/gcci/certgen/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GeneratePath is the certificate render endpoint.
const GeneratePath = "/generate-origin-certificate-pdf/"

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Certificate *handler.CertificateHandler
	System      *handler.SystemHandler
	Metrics     *telemetry.HTTPMetrics
	Registry    *prometheus.Registry
	Tracing     bool
}

// NewEngine builds the gin engine with the middleware chain and every route.
// The rate limiter's cleanup loop runs until ctx is done.
func NewEngine(ctx context.Context, deps Deps) (*gin.Engine, error) {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	if deps.Tracing {
		engine.Use(middleware.Tracing(deps.Config.Telemetry.ServiceName)...)
	}
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	if deps.Metrics != nil {
		engine.Use(middleware.Metrics(deps.Metrics))
	}
	engine.Use(middleware.BodyLimit(deps.Config.HTTP.MaxBodySize))

	system := NewDomainGroup("system", "")
	system.GET("/", deps.System.Root)
	system.GET("/health", deps.System.Health)
	system.GET("/system/info", deps.System.GetSystemInfo)
	if deps.Registry != nil {
		system.GET("/metrics", gin.WrapH(telemetry.Handler(deps.Registry)))
	}

	certificates := NewDomainGroup("certificates", "")
	if deps.Config.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(
			deps.Config.HTTP.RateLimitRequests,
			deps.Config.HTTP.RateLimitWindow,
			deps.Config.HTTP.RateLimitBurst,
		)
		limiter.StartCleanup(ctx)
		certificates.Use(limiter.Middleware())
	}
	certificates.POST(GeneratePath, deps.Certificate.Generate)

	NewRouter(engine).
		Register(system).
		Register(certificates).
		Setup()

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	return engine, nil
}
