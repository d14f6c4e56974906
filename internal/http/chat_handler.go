package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/service"
)

// ChatHandler expone el endpoint público del widget web.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chatServ: chatServ}
}

// PostMessage maneja POST /chat/:chatbot_id. El contenido puede ser vacío: el
// pipeline responde igual.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Message        string `json:"message"`
		UserIdentifier string `json:"user_identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := h.chatServ.HandleInbound(c.Request.Context(), service.InboundMessage{
		ChatbotID:      c.Param("chatbot_id"),
		UserIdentifier: req.UserIdentifier,
		Channel:        domain.ChannelWeb,
		Content:        req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatbotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chatbot not found"})
		case errors.Is(err, service.ErrChatRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, slow down"})
		default:
			h.logger.Error("chat message failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		}
		return
	}

	c.JSON(http.StatusOK, reply)
}
