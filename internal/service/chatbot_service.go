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

	"botforge/internal/domain"
	"botforge/internal/repository"
)

var (
	ErrChatbotInvalidInput = errors.New("chatbot invalid input")
	ErrInvalidThreshold    = errors.New("confidence threshold out of range")
)

// ChatbotService coordina reglas de negocio para chatbots y su configuración
// de AI. El umbral de confianza solo se muta por acá y siempre queda en [0,1].
type ChatbotService struct {
	logger   *zap.Logger
	chatbots repository.ChatbotRepository
}

func NewChatbotService(logger *zap.Logger, chatbots repository.ChatbotRepository) *ChatbotService {
	return &ChatbotService{logger: logger, chatbots: chatbots}
}

type CreateChatbotInput struct {
	UserID      string
	Name        string
	Description string
	TemplateID  string
	Industry    string
	UseCase     string
	Config      domain.ChatbotConfig
	Theme       string
}

func (s *ChatbotService) Create(ctx context.Context, input CreateChatbotInput) (domain.Chatbot, error) {
	if s == nil || s.chatbots == nil {
		return domain.Chatbot{}, errors.New("chatbot service not configured")
	}

	userID := strings.TrimSpace(input.UserID)
	name := strings.TrimSpace(input.Name)
	if userID == "" || name == "" {
		return domain.Chatbot{}, ErrChatbotInvalidInput
	}
	if err := validateConfig(input.Config); err != nil {
		return domain.Chatbot{}, err
	}

	theme := strings.TrimSpace(input.Theme)
	if theme == "" {
		theme = "modern-dark"
	}

	now := time.Now().UTC()
	bot := domain.Chatbot{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		TemplateID:  strings.TrimSpace(input.TemplateID),
		Industry:    strings.TrimSpace(input.Industry),
		UseCase:     strings.TrimSpace(input.UseCase),
		Config:      input.Config,
		Theme:       theme,
		Status:      domain.ChatbotStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.chatbots.Create(ctx, bot); err != nil {
		return domain.Chatbot{}, fmt.Errorf("create chatbot: %w", err)
	}
	return bot, nil
}

func (s *ChatbotService) Get(ctx context.Context, id string) (domain.Chatbot, error) {
	bot, err := s.chatbots.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Chatbot{}, ErrChatbotNotFound
		}
		return domain.Chatbot{}, err
	}
	return bot, nil
}

func (s *ChatbotService) ListByUser(ctx context.Context, userID string) ([]domain.Chatbot, error) {
	return s.chatbots.ListByUserID(ctx, strings.TrimSpace(userID))
}

// UpdateConfig reemplaza la configuración completa, validando el invariante
// del umbral antes de persistir.
func (s *ChatbotService) UpdateConfig(ctx context.Context, id string, cfg domain.ChatbotConfig) (domain.Chatbot, error) {
	bot, err := s.Get(ctx, id)
	if err != nil {
		return domain.Chatbot{}, err
	}
	if err := validateConfig(cfg); err != nil {
		return domain.Chatbot{}, err
	}

	now := time.Now().UTC()
	if err := s.chatbots.UpdateConfig(ctx, bot.ID, cfg, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Chatbot{}, ErrChatbotNotFound
		}
		return domain.Chatbot{}, fmt.Errorf("update chatbot config: %w", err)
	}
	bot.Config = cfg
	bot.UpdatedAt = now
	return bot, nil
}

// TrainInput son los datos de un job de entrenamiento simulado.
type TrainInput struct {
	TrainingDataCount   int
	ConfidenceThreshold *float64
	FallbackEnabled     *bool
	Personality         string
	CustomInstructions  string
}

// TrainResult describe el job simulado; el "entrenamiento" solo habilita la
// AI y actualiza la configuración, no hay modelo real detrás.
type TrainResult struct {
	TrainingJobID string               `json:"training_job_id"`
	Status        string               `json:"status"`
	Config        domain.ChatbotConfig `json:"ai_config"`
}

func (s *ChatbotService) Train(ctx context.Context, id string, input TrainInput) (TrainResult, error) {
	bot, err := s.Get(ctx, id)
	if err != nil {
		return TrainResult{}, err
	}

	cfg := bot.Config
	cfg.AIEnabled = true
	if input.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = input.ConfidenceThreshold
	}
	if input.FallbackEnabled != nil {
		cfg.FallbackEnabled = input.FallbackEnabled
	}
	if p := strings.TrimSpace(input.Personality); p != "" {
		cfg.Personality = p
	}
	if ci := strings.TrimSpace(input.CustomInstructions); ci != "" {
		cfg.CustomInstructions = ci
	}
	if err := validateConfig(cfg); err != nil {
		return TrainResult{}, err
	}

	now := time.Now().UTC()
	cfg.TrainingJobID = uuid.NewString()
	cfg.TrainingDataCount = input.TrainingDataCount
	cfg.LastTrainedAt = &now

	if err := s.chatbots.UpdateConfig(ctx, bot.ID, cfg, now); err != nil {
		return TrainResult{}, fmt.Errorf("persist training config: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("chatbot trained",
			zap.String("chatbot_id", bot.ID),
			zap.String("training_job_id", cfg.TrainingJobID),
			zap.Int("training_data_count", cfg.TrainingDataCount),
		)
	}
	return TrainResult{
		TrainingJobID: cfg.TrainingJobID,
		Status:        "completed",
		Config:        cfg,
	}, nil
}

// Delete borra el chatbot y, por cascada, sus conversaciones y mensajes.
func (s *ChatbotService) Delete(ctx context.Context, id string) error {
	err := s.chatbots.Delete(ctx, strings.TrimSpace(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrChatbotNotFound
	}
	return err
}

func validateConfig(cfg domain.ChatbotConfig) error {
	if cfg.ConfidenceThreshold != nil {
		t := *cfg.ConfidenceThreshold
		if t < 0 || t > 1 {
			return ErrInvalidThreshold
		}
	}
	return nil
}
