package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/repository"
	"botforge/internal/service"
)

// WebhookHandler recibe eventos de la Graph API de Meta y los convierte en
// mensajes entrantes del pipeline.
type WebhookHandler struct {
	logger       *zap.Logger
	chatServ     *service.ChatService
	integrations repository.IntegrationRepository
}

func NewWebhookHandler(
	logger *zap.Logger,
	chatServ *service.ChatService,
	integrations repository.IntegrationRepository,
) *WebhookHandler {
	return &WebhookHandler{
		logger:       logger,
		chatServ:     chatServ,
		integrations: integrations,
	}
}

// Verify maneja GET /webhooks/:channel/:chatbot_id: el challenge de
// suscripción de Meta. Compara hub.verify_token contra el token configurado
// en la integración y devuelve hub.challenge en texto plano.
func (h *WebhookHandler) Verify(c *gin.Context) {
	chann := strings.TrimSpace(c.Param("channel"))
	chatbotID := strings.TrimSpace(c.Param("chatbot_id"))

	integ, err := h.integrations.GetByChatbotAndType(c.Request.Context(), chatbotID, chann)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
			return
		}
		h.logger.Error("webhook verify failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify webhook"})
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")
	expected := integ.Config["webhook_verify_token"]

	if mode != "subscribe" || expected == "" || token != expected {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, challenge)
}

// whatsappEvent es el payload de notificación de WhatsApp Business. Solo nos
// interesan los mensajes de texto.
type whatsappEvent struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Type string `json:"type"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// messengerEvent es el payload de la Send API de Messenger.
type messengerEvent struct {
	Entry []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// Receive maneja POST /webhooks/:channel/:chatbot_id. Siempre responde 200 a
// Meta aunque el procesamiento interno falle; si no, reintenta el evento.
func (h *WebhookHandler) Receive(c *gin.Context) {
	chann := strings.TrimSpace(c.Param("channel"))
	chatbotID := strings.TrimSpace(c.Param("chatbot_id"))

	switch chann {
	case domain.ChannelWhatsApp:
		var event whatsappEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		for _, entry := range event.Entry {
			for _, change := range entry.Changes {
				for _, msg := range change.Value.Messages {
					if msg.Type != "" && msg.Type != "text" {
						continue
					}
					h.process(c, chatbotID, domain.ChannelWhatsApp, msg.From, msg.Text.Body)
				}
			}
		}
	case domain.ChannelMessenger:
		var event messengerEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		for _, entry := range event.Entry {
			for _, messaging := range entry.Messaging {
				if messaging.Message.Text == "" {
					continue
				}
				h.process(c, chatbotID, domain.ChannelMessenger, messaging.Sender.ID, messaging.Message.Text)
			}
		}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (h *WebhookHandler) process(c *gin.Context, chatbotID, chann, from, text string) {
	_, err := h.chatServ.HandleInbound(c.Request.Context(), service.InboundMessage{
		ChatbotID:      chatbotID,
		UserIdentifier: from,
		Channel:        chann,
		Content:        text,
	})
	if err != nil {
		h.logger.Warn("webhook message failed",
			zap.Error(err),
			zap.String("chatbot_id", chatbotID),
			zap.String("channel", chann),
		)
	}
}
