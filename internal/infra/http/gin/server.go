package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/config"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/obs"
)

type Handlers struct {
	Chat           ChatHTTP
	Preferences    PreferencesHTTP
	ChatWS         gin.HandlerFunc
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Chat != nil {
		chatGroup := api.Group("/chat")
		chatGroup.POST("/messages", h.Chat.SendMessage)
		chatGroup.GET("/with/:partner", h.Chat.History)
		chatGroup.POST("/with/:partner/read", h.Chat.MarkRead)
		chatGroup.GET("/conversations", h.Chat.ListConversations)
		chatGroup.GET("/unread-count", h.Chat.UnreadCount)
		if h.ChatWS != nil {
			chatGroup.GET("/ws", h.ChatWS)
		}
	}
	if h.Preferences != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/notification-preferences", h.Preferences.Get)
		meGroup.PUT("/notification-preferences", h.Preferences.Update)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
