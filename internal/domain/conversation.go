package domain

import "time"

// Remitentes válidos de un mensaje.
const (
	SenderUser  = "user"
	SenderBot   = "bot"
	SenderAgent = "agent"
)

// Canales de entrega soportados.
const (
	ChannelWeb       = "web"
	ChannelWhatsApp  = "whatsapp"
	ChannelMessenger = "messenger"
	ChannelEmail     = "email"
)

// Estados de una conversación.
const (
	ConversationStatusActive    = "active"
	ConversationStatusCompleted = "completed"
	ConversationStatusAbandoned = "abandoned"
)

// Conversation es la sesión ordenada de mensajes entre un usuario final y un
// chatbot sobre un canal. Se crea de forma perezosa con el primer mensaje
// entrante para la tripleta (chatbot, user_identifier, channel).
type Conversation struct {
	ID             string `json:"id"`
	ChatbotID      string `json:"chatbot_id"`
	SessionID      string `json:"session_id,omitempty"`
	UserIdentifier string `json:"user_identifier,omitempty"`
	Channel        string `json:"channel"`

	Status             string `json:"status"`
	SatisfactionRating *int   `json:"satisfaction_rating,omitempty"`
	LeadCaptured       bool   `json:"lead_captured"`
	GoalAchieved       bool   `json:"goal_achieved"`

	MessageCount    int `json:"message_count"`
	DurationSeconds int `json:"duration_seconds"`

	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}

// Message es un turno de la conversación. Inmutable una vez creado.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`

	Intent         string   `json:"intent,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	ResponseTimeMs *int     `json:"response_time_ms,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AnalyticsSummary agrega el desempeño del motor sobre mensajes del bot.
// El promedio de confianza es por buckets (0.9/0.65/0.3), no la media real
// de los valores almacenados; es una aproximación heredada del producto.
type AnalyticsSummary struct {
	TotalBotMessages        int     `json:"total_bot_messages"`
	AIGeneratedResponses    int     `json:"ai_generated_responses"`
	HighConfidenceResponses int     `json:"high_confidence_responses"`
	LowConfidenceResponses  int     `json:"low_confidence_responses"`
	FallbackResponses       int     `json:"fallback_responses"`
	AverageConfidence       float64 `json:"average_confidence"`
	AverageResponseTimeMs   float64 `json:"average_response_time_ms"`
	AIUsageRate             float64 `json:"ai_usage_rate"`
}

// IntentCount es la frecuencia de un intent detectado en mensajes de usuario.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}
