package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/engine"
	"github.com/roomcast/roomcast-server/internal/store"
)

// NewServer builds the HTTP server: health check, websocket endpoint and REST API.
func NewServer(gw *engine.Gateway, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapH(NewWSHandler(gw, authService, cfg.MessagesPerMinute, logger)))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	notificationHandlers := NewNotificationHandlers(st, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.GuestLogin)

		authed := api.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.POST("/rooms", roomHandlers.CreateRoom)
			authed.GET("/rooms", roomHandlers.ListRooms)
			authed.POST("/rooms/:id/join", roomHandlers.JoinRoom)
			authed.GET("/rooms/:id/messages", roomHandlers.ListMessages)

			authed.GET("/notifications", notificationHandlers.List)
			authed.POST("/notifications/read", notificationHandlers.MarkRead)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
