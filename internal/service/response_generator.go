package service

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"botforge/internal/domain"
)

// ResponseResult es la salida del generador de respuestas.
type ResponseResult struct {
	Content     string   `json:"content"`
	Intent      string   `json:"intent"`
	Confidence  *float64 `json:"confidence,omitempty"`
	AIGenerated bool     `json:"ai_generated"`
}

// Frases de aclaración usadas cuando la confianza queda bajo el umbral.
// Lista ordenada y fija; la selección es un draw pseudoaleatorio seedeable.
var fallbackPhrases = []string{
	"I want to make sure I give you the most accurate information. Could you please rephrase your question?",
	"I'm not entirely sure I understand. Could you provide a bit more detail about what you're looking for?",
	"Let me connect you with someone who can better assist you with that specific question.",
	"I'd like to help you with that. Could you tell me more about what you need?",
}

const fallbackConfidence = 0.5

// Una plantilla por intent del clasificador.
var intentTemplates = map[string]string{
	IntentGreeting:       "Hello! I'm here to help you.",
	IntentGoodbye:        "Thank you for chatting with us! Have a wonderful day!",
	IntentHelpRequest:    "I'd be happy to help you! What specific question do you have?",
	IntentPricingInquiry: "I can help you with pricing information. What product or service are you interested in?",
	IntentBookingRequest: "I can help you schedule an appointment. What type of service are you looking for?",
	IntentOrderRequest:   "I can assist you with placing an order. What would you like to purchase?",
	IntentContactInquiry: "I can provide you with our contact information. What's the best way to reach you?",
	IntentGeneralInquiry: "I understand your question. Let me help you find the right information.",
}

const genericTemplate = "I'm here to help! Could you please provide more details about what you're looking for?"

// Keywords del responder basado en reglas (modo con AI deshabilitada).
var (
	ruleGreetingKeywords = []string{"hello", "hi", "hey"}
	ruleGoodbyeKeywords  = []string{"bye", "goodbye", "thanks"}
)

// ResponseGenerator produce la respuesta del bot para un mensaje entrante.
// Es puro dado el config, salvo el draw aleatorio de fallback; el RNG se
// puede seedear para tests deterministas.
type ResponseGenerator struct {
	classifier IntentClassifier

	mu  sync.Mutex
	rng *rand.Rand
}

func NewResponseGenerator() *ResponseGenerator {
	return NewSeededResponseGenerator(time.Now().UnixNano())
}

func NewSeededResponseGenerator(seed int64) *ResponseGenerator {
	return &ResponseGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Respond decide entre el responder de reglas, el fallback y la respuesta
// contextual por intent, según config. Nunca falla: config incompleto cae en
// los defaults documentados.
func (g *ResponseGenerator) Respond(message string, cfg domain.ChatbotConfig) ResponseResult {
	if !cfg.AIEnabled {
		return g.ruleBasedResponse(message, cfg)
	}

	intent, confidence := g.classifier.Classify(message)

	if confidence < cfg.Threshold() && cfg.FallbackOn() {
		conf := fallbackConfidence
		return ResponseResult{
			Content:     g.pickFallback(),
			Intent:      IntentFallback,
			Confidence:  &conf,
			AIGenerated: true,
		}
	}

	return ResponseResult{
		Content:     g.contextualResponse(intent, cfg),
		Intent:      intent,
		Confidence:  &confidence,
		AIGenerated: true,
	}
}

// ruleBasedResponse hace un match de tres vías contra los mensajes
// configurados. Sin clasificación ni confianza.
func (g *ResponseGenerator) ruleBasedResponse(message string, cfg domain.ChatbotConfig) ResponseResult {
	lower := strings.ToLower(message)

	content := ""
	switch {
	case containsAny(lower, ruleGreetingKeywords):
		content = cfg.GreetingMessage
		if content == "" {
			content = domain.DefaultGreetingMessage
		}
	case containsAny(lower, ruleGoodbyeKeywords):
		content = cfg.GoodbyeMessage
		if content == "" {
			content = domain.DefaultGoodbyeMessage
		}
	default:
		content = cfg.DefaultMessage
		if content == "" {
			content = domain.DefaultDefaultMessage
		}
	}

	return ResponseResult{
		Content:     content,
		Intent:      IntentGeneral,
		AIGenerated: false,
	}
}

// contextualResponse arma la plantilla del intent, agrega las instrucciones
// custom donde corresponde y aplica los ajustes de personalidad en orden:
// primero friendly, después formal; pueden aplicar ambos.
func (g *ResponseGenerator) contextualResponse(intent string, cfg domain.ChatbotConfig) string {
	response, ok := intentTemplates[intent]
	if !ok {
		response = genericTemplate
	}

	if cfg.CustomInstructions != "" && (intent == IntentGreeting || intent == IntentGeneralInquiry) {
		response = response + " " + cfg.CustomInstructions
	}

	personality := strings.ToLower(cfg.EffectivePersonality())
	if strings.Contains(personality, "friendly") {
		response = strings.ReplaceAll(response, "I can", "I'd love to")
		response = strings.ReplaceAll(response, "Hello!", "Hi there! 😊")
	}
	if strings.Contains(personality, "formal") {
		response = strings.ReplaceAll(response, "Hi there!", "Good day,")
		response = strings.ReplaceAll(response, "I'd", "I would")
	}

	return response
}

func (g *ResponseGenerator) pickFallback() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fallbackPhrases[g.rng.Intn(len(fallbackPhrases))]
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
