package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botforge/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	chatbotH *ChatbotHandler,
	chatH *ChatHandler,
	webhookH *WebhookHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	users := r.Group("/users")
	users.POST("", userH.Register)

	auth := r.Group("/auth")
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.Refresh)
	auth.POST("/logout", userH.Logout)

	// Rutas del builder: requieren sesión de la plataforma.
	bots := r.Group("/chatbots", JWTAuthMiddleware(jwtSvc))
	bots.POST("", chatbotH.Create)
	bots.GET("", chatbotH.List)
	bots.GET("/:chatbot_id", chatbotH.Get)
	bots.DELETE("/:chatbot_id", chatbotH.Delete)
	bots.GET("/:chatbot_id/ai/config", chatbotH.GetAIConfig)
	bots.PUT("/:chatbot_id/ai/config", chatbotH.UpdateAIConfig)
	bots.POST("/:chatbot_id/ai/train", chatbotH.Train)
	bots.POST("/:chatbot_id/ai/test", chatbotH.TestResponse)
	bots.GET("/:chatbot_id/ai/analytics", chatbotH.Analytics)
	bots.GET("/:chatbot_id/ai/intents", chatbotH.Intents)
	bots.PUT("/:chatbot_id/integrations/:integration_type", chatbotH.UpsertIntegration)
	bots.GET("/:chatbot_id/integrations/:integration_type", chatbotH.GetIntegration)

	// Superficie pública: widget web y webhooks de canales.
	r.POST("/chat/:chatbot_id", chatH.PostMessage)
	r.GET("/webhooks/:channel/:chatbot_id", webhookH.Verify)
	r.POST("/webhooks/:channel/:chatbot_id", webhookH.Receive)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
