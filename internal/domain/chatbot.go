package domain

import "time"

// Estados de un chatbot.
const (
	ChatbotStatusDraft    = "draft"
	ChatbotStatusActive   = "active"
	ChatbotStatusPaused   = "paused"
	ChatbotStatusArchived = "archived"
)

type Chatbot struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"template_id,omitempty"`
	Industry    string `json:"industry,omitempty"`
	UseCase     string `json:"use_case,omitempty"`

	Config ChatbotConfig `json:"config"`
	Theme  string        `json:"theme,omitempty"`

	Status        string     `json:"status"`
	DeploymentURL string     `json:"deployment_url,omitempty"`
	EmbedCode     string     `json:"embed_code,omitempty"`
	DeployedAt    *time.Time `json:"deployed_at,omitempty"`

	TotalConversations int     `json:"total_conversations"`
	TotalMessages      int     `json:"total_messages"`
	SatisfactionScore  float64 `json:"satisfaction_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults documentados del motor de respuestas.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultPersonality         = "helpful and professional"
	DefaultGreetingMessage     = "Hello! How can I help you today?"
	DefaultGoodbyeMessage      = "Thank you for chatting with us! Have a great day!"
	DefaultDefaultMessage      = "Thank you for your message. How can I assist you today?"
)

// ChatbotConfig agrupa los ajustes por chatbot. Los campos opcionales son
// punteros para distinguir "ausente" de "cero"; Extra conserva claves que el
// builder pueda mandar y que este backend todavía no modela.
type ChatbotConfig struct {
	AIEnabled           bool     `json:"ai_enabled"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	FallbackEnabled     *bool    `json:"fallback_enabled,omitempty"`
	Personality         string   `json:"personality,omitempty"`
	CustomInstructions  string   `json:"custom_instructions,omitempty"`
	GreetingMessage     string   `json:"greeting_message,omitempty"`
	GoodbyeMessage      string   `json:"goodbye_message,omitempty"`
	DefaultMessage      string   `json:"default_message,omitempty"`

	ResponseStyle     string `json:"response_style,omitempty"`
	MaxResponseLength int    `json:"max_response_length,omitempty"`

	TrainingJobID     string     `json:"training_job_id,omitempty"`
	TrainingDataCount int        `json:"training_data_count,omitempty"`
	LastTrainedAt     *time.Time `json:"last_trained_at,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Threshold devuelve el umbral efectivo, siempre dentro de [0,1].
func (c ChatbotConfig) Threshold() float64 {
	if c.ConfidenceThreshold == nil {
		return DefaultConfidenceThreshold
	}
	t := *c.ConfidenceThreshold
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// FallbackOn indica si el fallback está habilitado (por defecto sí).
func (c ChatbotConfig) FallbackOn() bool {
	if c.FallbackEnabled == nil {
		return true
	}
	return *c.FallbackEnabled
}

// EffectivePersonality devuelve la personalidad configurada o el default.
func (c ChatbotConfig) EffectivePersonality() string {
	if c.Personality == "" {
		return DefaultPersonality
	}
	return c.Personality
}

// Estados de una integración de canal.
const (
	IntegrationStatusActive   = "active"
	IntegrationStatusInactive = "inactive"
	IntegrationStatusError    = "error"
)

type Integration struct {
	ID        string `json:"id"`
	ChatbotID string `json:"chatbot_id"`
	Type      string `json:"integration_type"`
	Name      string `json:"name"`

	// Credenciales y ajustes del canal (phone_number_id, access_token, etc.).
	Config map[string]string `json:"config,omitempty"`

	Status       string     `json:"status"`
	LastSync     *time.Time `json:"last_sync,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
