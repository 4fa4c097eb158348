package dashboard

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"seabot/internal/common/config"
	"seabot/internal/common/middleware"
)

// RouteRegistrar is implemented by each feature's delivery/http handler.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type RouterDeps struct {
	Config    *config.Config
	Handlers  []RouteRegistrar
	Ready     map[string]Pinger
	Connected func() bool
	Log       zerolog.Logger

	// Public handlers are mounted at the root without credentials.
	Public []RouteRegistrar
}

// NewRouter builds the dashboard engine. Probes, metrics and swagger are
// public; everything under /api/v1 requires the dashboard credentials.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Log, "/health", "/live", "/ready", "/metrics"))
	router.Use(middleware.ErrorHandler(deps.Log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{deps.Config.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", Health(deps.Connected))
	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", Ready(deps.Ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	for _, h := range deps.Public {
		h.RegisterRoutes(&router.RouterGroup)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireBasicAuth(deps.Config.Dashboard.Username, deps.Config.Dashboard.Password, deps.Log))
	for _, h := range deps.Handlers {
		h.RegisterRoutes(v1)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router
}
