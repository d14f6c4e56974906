package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"botforge/internal/channel"
	"botforge/internal/config"
	"botforge/internal/db"
	apihttp "botforge/internal/http"
	"botforge/internal/repository"
	"botforge/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	chatbotRepo := repository.NewPgChatbotRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	integrationRepo := repository.NewPgIntegrationRepository(pool)

	emailSender := channel.NewDisabledEmailSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := channel.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	chatWindow := time.Duration(cfg.ChatRateLimitWindowSeconds) * time.Second
	var (
		chatLimiter service.ChatRateLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			chatLimiter = service.NewRedisChatRateLimiter(redisClient, chatWindow, cfg.ChatRateLimitMax)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if chatLimiter == nil {
		chatLimiter = service.NewChatRateLimiter(chatWindow, cfg.ChatRateLimitMax)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	graphClient := channel.NewGraphClient(cfg.GraphAPIBaseURL, logger)
	dispatcher := channel.NewRouter(logger, integrationRepo, graphClient, emailSender)

	generator := service.NewResponseGenerator()
	userSvc := service.NewUserService(logger, userRepo)
	chatbotSvc := service.NewChatbotService(logger, chatbotRepo)
	chatSvc := service.NewChatService(logger, chatbotRepo, conversationRepo, messageRepo, generator, dispatcher, chatLimiter)
	analyticsSvc := service.NewAnalyticsService(logger, conversationRepo, messageRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	chatbotHandler := apihttp.NewChatbotHandler(logger, chatbotSvc, chatSvc, analyticsSvc, integrationRepo, cfg.AnalyticsSampleSize)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	webhookHandler := apihttp.NewWebhookHandler(logger, chatSvc, integrationRepo)
	router := apihttp.NewRouter(logger, userHandler, chatbotHandler, chatHandler, webhookHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
