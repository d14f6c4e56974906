package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"botforge/internal/channel"
	"botforge/internal/domain"
	"botforge/internal/repository"
)

var (
	ErrChatbotNotFound = errors.New("chatbot not found")
	ErrChatRateLimited = errors.New("chat rate limited")
)

// InboundMessage es el evento de mensaje nuevo que entregan los webhooks y
// el chat API.
type InboundMessage struct {
	ChatbotID      string
	UserIdentifier string
	Channel        string
	Content        string
}

// ChatReply es lo que el pipeline devuelve al caller y lo que se despacha al
// canal de origen.
type ChatReply struct {
	ConversationID string   `json:"conversation_id"`
	Content        string   `json:"content"`
	Intent         string   `json:"intent"`
	Confidence     *float64 `json:"confidence,omitempty"`
	ResponseTimeMs int      `json:"response_time_ms"`
	AIGenerated    bool     `json:"ai_generated"`
}

// ChatService es el punto de entrada único del pipeline de conversación:
// clasifica, genera la respuesta, registra ambos turnos en el ledger y
// despacha la respuesta al canal en segundo plano.
type ChatService struct {
	logger        *zap.Logger
	chatbots      repository.ChatbotRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	generator     *ResponseGenerator
	dispatcher    channel.Dispatcher
	limiter       ChatRateLimiter
}

func NewChatService(
	logger *zap.Logger,
	chatbots repository.ChatbotRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	generator *ResponseGenerator,
	dispatcher channel.Dispatcher,
	limiter ChatRateLimiter,
) *ChatService {
	if generator == nil {
		generator = NewResponseGenerator()
	}
	return &ChatService{
		logger:        logger,
		chatbots:      chatbots,
		conversations: conversations,
		messages:      messages,
		generator:     generator,
		dispatcher:    dispatcher,
		limiter:       limiter,
	}
}

// HandleInbound procesa un mensaje entrante de punta a punta. Un mensaje
// vacío no es error: clasifica como general_inquiry y responde igual.
func (s *ChatService) HandleInbound(ctx context.Context, in InboundMessage) (ChatReply, error) {
	chatbotID := strings.TrimSpace(in.ChatbotID)
	if chatbotID == "" {
		return ChatReply{}, ErrChatbotNotFound
	}
	userIdentifier := strings.TrimSpace(in.UserIdentifier)
	if userIdentifier == "" {
		userIdentifier = "anonymous"
	}
	chann := strings.TrimSpace(in.Channel)
	if chann == "" {
		chann = domain.ChannelWeb
	}

	bot, err := s.chatbots.GetByID(ctx, chatbotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatReply{}, ErrChatbotNotFound
		}
		return ChatReply{}, fmt.Errorf("get chatbot %s: %w", chatbotID, err)
	}

	if s.limiter != nil && !s.limiter.Allow(chatbotID+":"+userIdentifier) {
		return ChatReply{}, ErrChatRateLimited
	}

	conv, err := s.conversations.GetOrCreate(ctx, chatbotID, userIdentifier, chann)
	if err != nil {
		return ChatReply{}, fmt.Errorf("get or create conversation: %w", err)
	}

	// El responder es puro; el tiempo de respuesta lo mide el caller.
	start := time.Now()
	result := s.generator.Respond(in.Content, bot.Config)
	elapsedMs := int(time.Since(start).Milliseconds())

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         domain.SenderUser,
		Content:        in.Content,
		MessageType:    "text",
		CreatedAt:      now,
	}
	if bot.Config.AIEnabled {
		intent, confidence := s.generator.classifier.Classify(in.Content)
		userMsg.Intent = intent
		userMsg.Confidence = &confidence
	}
	if err := s.messages.Append(ctx, userMsg); err != nil {
		return ChatReply{}, fmt.Errorf("append user message: %w", err)
	}

	botMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         domain.SenderBot,
		Content:        result.Content,
		MessageType:    "text",
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		ResponseTimeMs: &elapsedMs,
		CreatedAt:      now,
	}
	if err := s.messages.Append(ctx, botMsg); err != nil {
		return ChatReply{}, fmt.Errorf("append bot message: %w", err)
	}

	s.deliverAsync(chatbotID, chann, userIdentifier, result.Content)

	return ChatReply{
		ConversationID: conv.ID,
		Content:        result.Content,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		ResponseTimeMs: elapsedMs,
		AIGenerated:    result.AIGenerated,
	}, nil
}

// Preview genera una respuesta de prueba sin persistir nada.
func (s *ChatService) Preview(ctx context.Context, chatbotID, message string) (ChatReply, error) {
	bot, err := s.chatbots.GetByID(ctx, strings.TrimSpace(chatbotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatReply{}, ErrChatbotNotFound
		}
		return ChatReply{}, fmt.Errorf("get chatbot %s: %w", chatbotID, err)
	}

	start := time.Now()
	result := s.generator.Respond(message, bot.Config)
	elapsedMs := int(time.Since(start).Milliseconds())

	return ChatReply{
		Content:        result.Content,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		ResponseTimeMs: elapsedMs,
		AIGenerated:    result.AIGenerated,
	}, nil
}

// deliverAsync despacha la respuesta al canal sin bloquear el request. Una
// falla de entrega se loguea y se traga: la respuesta ya quedó persistida.
func (s *ChatService) deliverAsync(chatbotID, chann, recipient, content string) {
	if s.dispatcher == nil || chann == domain.ChannelWeb {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out := channel.OutboundMessage{
			ChatbotID: chatbotID,
			Channel:   chann,
			Recipient: recipient,
			Content:   content,
		}
		if err := s.dispatcher.Deliver(ctx, out); err != nil {
			s.logger.Warn("channel delivery failed",
				zap.Error(err),
				zap.String("chatbot_id", chatbotID),
				zap.String("channel", chann),
			)
		}
	}()
}
