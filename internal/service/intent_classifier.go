package service

import "strings"

// Intents que el clasificador puede devolver.
const (
	IntentGreeting       = "greeting"
	IntentGoodbye        = "goodbye"
	IntentHelpRequest    = "help_request"
	IntentPricingInquiry = "pricing_inquiry"
	IntentBookingRequest = "booking_request"
	IntentOrderRequest   = "order_request"
	IntentContactInquiry = "contact_inquiry"
	IntentGeneralInquiry = "general_inquiry"
	IntentFallback       = "fallback"
	IntentGeneral        = "general"
)

// intentPattern asocia un intent con sus keywords y una confianza fija.
type intentPattern struct {
	intent     string
	confidence float64
	keywords   []string
}

// El orden importa: se evalúa de arriba hacia abajo y gana el primer match.
var intentPatterns = []intentPattern{
	{IntentGreeting, 0.9, []string{"hello", "hi", "hey", "start"}},
	{IntentGoodbye, 0.9, []string{"bye", "goodbye", "end", "stop"}},
	{IntentHelpRequest, 0.8, []string{"help", "support", "assist"}},
	{IntentPricingInquiry, 0.8, []string{"price", "cost", "pricing", "how much"}},
	{IntentBookingRequest, 0.8, []string{"book", "schedule", "appointment", "reserve"}},
	{IntentOrderRequest, 0.8, []string{"order", "buy", "purchase"}},
	{IntentContactInquiry, 0.8, []string{"contact", "phone", "email", "address"}},
}

const generalInquiryConfidence = 0.6

// IntentClassifier mapea un mensaje crudo a un par (intent, confianza) por
// matching de keywords. Es una función pura: misma entrada, misma salida.
type IntentClassifier struct{}

// DefaultIntentClassifier permite uso directo sin instanciar.
var DefaultIntentClassifier = IntentClassifier{}

// Classify normaliza el mensaje a minúsculas y prueba los sets de keywords
// en orden de prioridad fija. Sin match (incluido mensaje vacío) devuelve
// general_inquiry con confianza 0.6.
func (IntentClassifier) Classify(message string) (string, float64) {
	lower := strings.ToLower(message)

	for _, p := range intentPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.intent, p.confidence
			}
		}
	}
	return IntentGeneralInquiry, generalInquiryConfidence
}
