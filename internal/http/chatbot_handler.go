package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/repository"
	"botforge/internal/service"
)

// ChatbotHandler expone el CRUD de chatbots y la superficie del motor de AI:
// configuración, entrenamiento simulado, pruebas, analytics e integraciones.
type ChatbotHandler struct {
	logger       *zap.Logger
	chatbotServ  *service.ChatbotService
	chatServ     *service.ChatService
	analytics    *service.AnalyticsService
	integrations repository.IntegrationRepository
	sampleSize   int
}

func NewChatbotHandler(
	logger *zap.Logger,
	chatbotServ *service.ChatbotService,
	chatServ *service.ChatService,
	analytics *service.AnalyticsService,
	integrations repository.IntegrationRepository,
	sampleSize int,
) *ChatbotHandler {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	return &ChatbotHandler{
		logger:       logger,
		chatbotServ:  chatbotServ,
		chatServ:     chatServ,
		analytics:    analytics,
		integrations: integrations,
		sampleSize:   sampleSize,
	}
}

// ownedChatbot resuelve el chatbot del path y verifica que pertenezca al
// usuario autenticado. Responde por su cuenta cuando algo falla.
func (h *ChatbotHandler) ownedChatbot(c *gin.Context) (domain.Chatbot, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return domain.Chatbot{}, false
	}

	bot, err := h.chatbotServ.Get(c.Request.Context(), c.Param("chatbot_id"))
	if err != nil {
		if errors.Is(err, service.ErrChatbotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
			return domain.Chatbot{}, false
		}
		h.logger.Error("get chatbot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chatbot"})
		return domain.Chatbot{}, false
	}
	if bot.UserID != claims.UserID {
		// No filtramos existencia de recursos ajenos.
		c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		return domain.Chatbot{}, false
	}
	return bot, true
}

// Create maneja POST /chatbots.
func (h *ChatbotHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	var req struct {
		Name        string               `json:"name" binding:"required"`
		Description string               `json:"description"`
		TemplateID  string               `json:"template_id"`
		Industry    string               `json:"industry"`
		UseCase     string               `json:"use_case"`
		Config      domain.ChatbotConfig `json:"config"`
		Theme       string               `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	bot, err := h.chatbotServ.Create(c.Request.Context(), service.CreateChatbotInput{
		UserID:      claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		Industry:    req.Industry,
		UseCase:     req.UseCase,
		Config:      req.Config,
		Theme:       req.Theme,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatbotInvalidInput), errors.Is(err, service.ErrInvalidThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("create chatbot failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chatbot"})
		}
		return
	}

	c.JSON(http.StatusCreated, bot)
}

// List maneja GET /chatbots.
func (h *ChatbotHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	bots, err := h.chatbotServ.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list chatbots failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list chatbots"})
		return
	}
	if bots == nil {
		bots = []domain.Chatbot{}
	}
	c.JSON(http.StatusOK, gin.H{"chatbots": bots})
}

// Get maneja GET /chatbots/:chatbot_id.
func (h *ChatbotHandler) Get(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bot)
}

// Delete maneja DELETE /chatbots/:chatbot_id.
func (h *ChatbotHandler) Delete(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	if err := h.chatbotServ.Delete(c.Request.Context(), bot.ID); err != nil {
		if errors.Is(err, service.ErrChatbotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
			return
		}
		h.logger.Error("delete chatbot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete chatbot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetAIConfig maneja GET /chatbots/:chatbot_id/ai/config.
func (h *ChatbotHandler) GetAIConfig(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chatbot_id": bot.ID,
		"ai_config":  bot.Config,
	})
}

// UpdateAIConfig maneja PUT /chatbots/:chatbot_id/ai/config. Reemplaza la
// configuración completa.
func (h *ChatbotHandler) UpdateAIConfig(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	var cfg domain.ChatbotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.chatbotServ.UpdateConfig(c.Request.Context(), bot.ID, cfg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrChatbotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		default:
			h.logger.Error("update ai config failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update config"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chatbot_id": updated.ID,
		"ai_config":  updated.Config,
	})
}

// Train maneja POST /chatbots/:chatbot_id/ai/train.
func (h *ChatbotHandler) Train(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	var req struct {
		TrainingDataCount   int      `json:"training_data_count"`
		ConfidenceThreshold *float64 `json:"confidence_threshold"`
		FallbackEnabled     *bool    `json:"fallback_enabled"`
		Personality         string   `json:"personality"`
		CustomInstructions  string   `json:"custom_instructions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.chatbotServ.Train(c.Request.Context(), bot.ID, service.TrainInput{
		TrainingDataCount:   req.TrainingDataCount,
		ConfidenceThreshold: req.ConfidenceThreshold,
		FallbackEnabled:     req.FallbackEnabled,
		Personality:         req.Personality,
		CustomInstructions:  req.CustomInstructions,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidThreshold):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrChatbotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		default:
			h.logger.Error("train failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start training"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// TestResponse maneja POST /chatbots/:chatbot_id/ai/test: genera una respuesta
// de prueba sin tocar el ledger.
func (h *ChatbotHandler) TestResponse(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := h.chatServ.Preview(c.Request.Context(), bot.ID, req.Message)
	if err != nil {
		h.logger.Error("test response failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate response"})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Analytics maneja GET /chatbots/:chatbot_id/ai/analytics.
func (h *ChatbotHandler) Analytics(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Compute(c.Request.Context(), bot.ID, h.sampleSize)
	if err != nil {
		h.logger.Error("analytics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chatbot_id": bot.ID,
		"analytics":  summary,
	})
}

// Intents maneja GET /chatbots/:chatbot_id/ai/intents.
func (h *ChatbotHandler) Intents(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	stats, analyzed, err := h.analytics.IntentStats(c.Request.Context(), bot.ID, h.sampleSize)
	if err != nil {
		h.logger.Error("intent stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute intent stats"})
		return
	}
	if stats == nil {
		stats = []domain.IntentCount{}
	}

	c.JSON(http.StatusOK, gin.H{
		"chatbot_id":        bot.ID,
		"intents":           stats,
		"messages_analyzed": analyzed,
	})
}

// UpsertIntegration maneja PUT /chatbots/:chatbot_id/integrations/:integration_type.
func (h *ChatbotHandler) UpsertIntegration(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	integrationType := strings.TrimSpace(c.Param("integration_type"))
	switch integrationType {
	case domain.ChannelWhatsApp, domain.ChannelMessenger, domain.ChannelEmail:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported integration type"})
		return
	}

	var req struct {
		Name   string            `json:"name"`
		Config map[string]string `json:"config"`
		Status string            `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = domain.IntegrationStatusActive
	}

	now := time.Now().UTC()
	integ := domain.Integration{
		ID:        uuid.NewString(),
		ChatbotID: bot.ID,
		Type:      integrationType,
		Name:      strings.TrimSpace(req.Name),
		Config:    req.Config,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.integrations.Upsert(c.Request.Context(), integ); err != nil {
		h.logger.Error("upsert integration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save integration"})
		return
	}

	c.JSON(http.StatusOK, integ)
}

// GetIntegration maneja GET /chatbots/:chatbot_id/integrations/:integration_type.
func (h *ChatbotHandler) GetIntegration(c *gin.Context) {
	bot, ok := h.ownedChatbot(c)
	if !ok {
		return
	}

	integ, err := h.integrations.GetByChatbotAndType(c.Request.Context(), bot.ID, strings.TrimSpace(c.Param("integration_type")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
			return
		}
		h.logger.Error("get integration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load integration"})
		return
	}

	c.JSON(http.StatusOK, integ)
}
