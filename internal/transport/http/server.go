package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/auth"
	"github.com/talkline/talkline-server/internal/config"
	"github.com/talkline/talkline-server/internal/service/chats"
	"github.com/talkline/talkline-server/internal/service/delivery"
	"github.com/talkline/talkline-server/internal/service/reads"
	"github.com/talkline/talkline-server/internal/store"
)

// NewServer builds the HTTP server: REST API, WebSocket endpoint, health check.
func NewServer(engine *delivery.Engine, resolver *chats.Resolver, calc *reads.Calculator, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.GET("/ws", gin.WrapH(NewWSHandler(engine, calc, authService, logger)))

	handlers := NewAPIHandlers(authService, resolver, calc, st, logger)

	api := router.Group("/api")
	api.POST("/register", handlers.Register)
	api.POST("/login", handlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.GET("/users", handlers.ListUsers)
	authed.GET("/chats", handlers.ListChats)
	authed.POST("/chats/resolve", handlers.ResolveChat)
	authed.GET("/chats/:chatID/messages", handlers.ChatHistory)
	authed.POST("/chats/:chatID/mark-read", handlers.MarkChatRead)
	authed.POST("/groups", handlers.CreateGroup)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
