package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"presence-service/internal/config"
	"presence-service/internal/handler"
	"presence-service/internal/metrics"
	"presence-service/internal/middleware"
	"presence-service/internal/websocket"
)

// Deps is everything Setup wires into routes. RedisClient and Online are nil
// when Redis is not configured.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Hub         *websocket.Hub
	Presence    *handler.PresenceHandler
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

func Setup(d Deps) *gin.Engine {
	if d.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))

	healthHandler := handler.NewHealthHandler(d.DB, d.RedisClient)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// legacy clients connect without the base path
	r.GET("/ws", d.Hub.HandleWebSocket)

	api := r.Group(d.Config.Server.BasePath)
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)

		api.GET("/ws", d.Hub.HandleWebSocket)

		api.GET("/hives/:hiveId/presence", d.Presence.GetSnapshot)
		api.GET("/hives/:hiveId/online", d.Presence.GetOnlineUsers)
	}

	return r
}
