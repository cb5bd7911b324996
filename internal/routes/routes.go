package routes

import (
	"github.com/damoang/angple-chat/internal/handler"
	"github.com/damoang/angple-chat/internal/middleware"
	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups the HTTP handlers mounted by Setup
type Handlers struct {
	Auth *handler.AuthHandler
	Chat *handler.ChatHandler
	WS   *handler.WSHandler
}

// Limits configures the Redis rate limiters. Zero disables a limiter.
type Limits struct {
	RequestsPerMinute int
	MessagesPerMinute int
}

// Setup configures all API routes. redisClient may be nil (rate limiting off).
func Setup(router *gin.Engine, h Handlers, jwtManager *jwt.Manager, redisClient *redis.Client, limits Limits) {
	authRequired := middleware.JWTAuth(jwtManager)

	ipLimit := middleware.DefaultRateLimitConfig()
	ipLimit.RequestsPerMinute = limits.RequestsPerMinute

	api := router.Group("/api", middleware.RateLimit(redisClient, ipLimit))

	// Authentication endpoints
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.GET("/user", authRequired, h.Auth.Me)
	auth.POST("/logout", authRequired, h.Auth.Logout)
	auth.POST("/avatar", authRequired, h.Auth.UploadAvatar)

	// Conversations (인증 필요)
	chat := api.Group("/chat", authRequired)
	chat.GET("/contacts", h.Chat.Contacts)
	chat.POST("/new", h.Chat.ResolveOrCreate)
	chat.GET("/user", h.Chat.MyChats)
	chat.GET("/:chatId/messages", h.Chat.History)
	chat.POST("/:chatId/message",
		middleware.RateLimitPerUser(redisClient, limits.MessagesPerMinute),
		h.Chat.Send)

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Realtime (token via header or ?token=)
	router.GET("/ws", middleware.JWTAuthWS(jwtManager), h.WS.Connect)
}
