package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/service"
)

func newWebhookFixture(bots map[string]domain.Chatbot, integrations map[string]domain.Integration) (*gin.Engine, *mockMessageRepo) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	msgs := &mockMessageRepo{}
	chatSvc := service.NewChatService(
		logger,
		&mockChatbotRepo{bots: bots},
		mockConversationRepo{},
		msgs,
		service.NewSeededResponseGenerator(1),
		nil,
		nil,
	)
	integRepo := &mockIntegrationRepo{integrations: integrations}
	h := NewWebhookHandler(logger, chatSvc, integRepo)

	r := gin.New()
	r.GET("/webhooks/:channel/:chatbot_id", h.Verify)
	r.POST("/webhooks/:channel/:chatbot_id", h.Receive)
	return r, msgs
}

func TestWebhookVerify_EchoesChallenge(t *testing.T) {
	r, _ := newWebhookFixture(nil, map[string]domain.Integration{
		"bot-1|whatsapp": {
			ID:        "i1",
			ChatbotID: "bot-1",
			Type:      domain.ChannelWhatsApp,
			Status:    domain.IntegrationStatusActive,
			Config:    map[string]string{"webhook_verify_token": "tok-123"},
		},
	})

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp/bot-1?hub.mode=subscribe&hub.verify_token=tok-123&hub.challenge=challenge-77", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "challenge-77" {
		t.Fatalf("expected raw challenge echo, got %q", rec.Body.String())
	}
}

func TestWebhookVerify_WrongToken(t *testing.T) {
	r, _ := newWebhookFixture(nil, map[string]domain.Integration{
		"bot-1|whatsapp": {
			ChatbotID: "bot-1",
			Type:      domain.ChannelWhatsApp,
			Config:    map[string]string{"webhook_verify_token": "tok-123"},
		},
	})

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp/bot-1?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=challenge-77", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookVerify_MissingIntegration(t *testing.T) {
	r, _ := newWebhookFixture(nil, map[string]domain.Integration{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp/bot-1?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=c", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWebhookReceive_WhatsAppMessages(t *testing.T) {
	r, msgs := newWebhookFixture(map[string]domain.Chatbot{
		"bot-1": {ID: "bot-1", Config: domain.ChatbotConfig{AIEnabled: true}},
	}, nil)

	payload := []byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [
						{"from": "5491100000000", "type": "text", "text": {"body": "hello"}},
						{"from": "5491100000000", "type": "image", "text": {"body": ""}}
					]
				}
			}]
		}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp/bot-1", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	// Solo el mensaje de texto genera turnos; el de imagen se ignora.
	if msgs.count() != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", msgs.count())
	}
}

func TestWebhookReceive_MessengerMessages(t *testing.T) {
	r, msgs := newWebhookFixture(map[string]domain.Chatbot{
		"bot-1": {ID: "bot-1"},
	}, nil)

	payload := []byte(`{
		"entry": [{
			"messaging": [
				{"sender": {"id": "psid-9"}, "message": {"text": "hi there"}},
				{"sender": {"id": "psid-9"}, "message": {"text": ""}}
			]
		}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/messenger/bot-1", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msgs.count() != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", msgs.count())
	}
}

func TestWebhookReceive_UnknownChatbotStill200(t *testing.T) {
	r, msgs := newWebhookFixture(map[string]domain.Chatbot{}, nil)

	payload := []byte(`{
		"entry": [{
			"changes": [{
				"value": {"messages": [{"from": "549", "type": "text", "text": {"body": "hello"}}]}
			}]
		}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp/ghost", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Meta reintenta si no recibe 200: el error interno se loguea y listo.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite unknown chatbot, got %d", rec.Code)
	}
	if msgs.count() != 0 {
		t.Fatalf("expected no recorded messages, got %d", msgs.count())
	}
}

func TestWebhookReceive_UnknownChannel(t *testing.T) {
	r, _ := newWebhookFixture(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telegram/bot-1", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown channel, got %d", rec.Code)
	}
}
