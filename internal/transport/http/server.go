package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/auth"
	"github.com/vantagechat/vantage-server/internal/config"
	"github.com/vantagechat/vantage-server/internal/core"
	"github.com/vantagechat/vantage-server/internal/geo"
	"github.com/vantagechat/vantage-server/internal/store"
)

// NewServer builds the HTTP server hosting the REST surface and the
// websocket bridge into the hub.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, presence *core.Tracker, resolver geo.Resolver, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, st, presence, logger)
	ws := NewWSHandler(hub, authService, resolver, cfg, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)

	authed := router.Group("/api", AuthMiddleware(authService, logger))
	authed.GET("/messages", api.ListMessages)

	admin := authed.Group("/admin", RequireAdmin(logger))
	admin.DELETE("/records", api.PurgeRecords)

	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
