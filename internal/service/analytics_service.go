package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/repository"
)

// AnalyticsService agrega el desempeño del motor escaneando los mensajes de
// bot de las conversaciones más recientes. Es de solo lectura y tolera
// correr en paralelo con escrituras (puede perder el último mensaje).
type AnalyticsService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

func NewAnalyticsService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
) *AnalyticsService {
	return &AnalyticsService{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
	}
}

// Compute escanea hasta sampleSize conversaciones recientes del chatbot.
//
// El promedio de confianza es por buckets: las respuestas altas (>=0.8)
// cuentan 0.9, las medias 0.65 y las bajas (<0.5) 0.3. No es la media real
// de los valores almacenados y se conserva así a propósito: cambiarlo
// alteraría silenciosamente los dashboards existentes.
func (s *AnalyticsService) Compute(ctx context.Context, chatbotID string, sampleSize int) (domain.AnalyticsSummary, error) {
	convs, err := s.conversations.ListRecentByChatbotID(ctx, chatbotID, sampleSize)
	if err != nil {
		return domain.AnalyticsSummary{}, fmt.Errorf("list conversations: %w", err)
	}

	var (
		total          int
		aiResponses    int
		highConfidence int
		lowConfidence  int
		fallbacks      int
		responseTimeMs int
	)

	for _, conv := range convs {
		msgs, err := s.messages.ListByConversationAndSender(ctx, conv.ID, domain.SenderBot)
		if err != nil {
			return domain.AnalyticsSummary{}, fmt.Errorf("list bot messages for %s: %w", conv.ID, err)
		}
		for _, msg := range msgs {
			total++
			if msg.Confidence != nil {
				aiResponses++
				if *msg.Confidence >= 0.8 {
					highConfidence++
				} else if *msg.Confidence < 0.5 {
					lowConfidence++
				}
				if msg.ResponseTimeMs != nil {
					responseTimeMs += *msg.ResponseTimeMs
				}
			}
			if msg.Intent == IntentFallback {
				fallbacks++
			}
		}
	}

	midConfidence := aiResponses - highConfidence - lowConfidence
	aiDivisor := float64(maxInt(aiResponses, 1))

	summary := domain.AnalyticsSummary{
		TotalBotMessages:        total,
		AIGeneratedResponses:    aiResponses,
		HighConfidenceResponses: highConfidence,
		LowConfidenceResponses:  lowConfidence,
		FallbackResponses:       fallbacks,
		AverageConfidence:       (float64(highConfidence)*0.9 + float64(midConfidence)*0.65 + float64(lowConfidence)*0.3) / aiDivisor,
		AverageResponseTimeMs:   float64(responseTimeMs) / aiDivisor,
		AIUsageRate:             float64(aiResponses) / float64(maxInt(total, 1)),
	}
	return summary, nil
}

// IntentStats cuenta los intents detectados en mensajes de usuario de las
// conversaciones recientes, ordenados por frecuencia descendente.
func (s *AnalyticsService) IntentStats(ctx context.Context, chatbotID string, sampleSize int) ([]domain.IntentCount, int, error) {
	convs, err := s.conversations.ListRecentByChatbotID(ctx, chatbotID, sampleSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}

	counts := make(map[string]int)
	for _, conv := range convs {
		msgs, err := s.messages.ListByConversationAndSender(ctx, conv.ID, domain.SenderUser)
		if err != nil {
			return nil, 0, fmt.Errorf("list user messages for %s: %w", conv.ID, err)
		}
		for _, msg := range msgs {
			if msg.Intent != "" {
				counts[msg.Intent]++
			}
		}
	}

	stats := make([]domain.IntentCount, 0, len(counts))
	analyzed := 0
	for intent, count := range counts {
		stats = append(stats, domain.IntentCount{Intent: intent, Count: count})
		analyzed += count
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Intent < stats[j].Intent
	})
	return stats, analyzed, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
