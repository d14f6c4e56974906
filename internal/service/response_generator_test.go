package service

import (
	"strings"
	"testing"

	"botforge/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestRespond_RuleBasedMode(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:       false,
		GreetingMessage: "Welcome to Acme!",
		GoodbyeMessage:  "See you soon!",
		DefaultMessage:  "Let me check that for you.",
	}

	cases := []struct {
		message string
		want    string
	}{
		{"hello!", "Welcome to Acme!"},
		{"hi", "Welcome to Acme!"},
		{"bye for now", "See you soon!"},
		{"thanks a lot", "See you soon!"},
		{"where is my package", "Let me check that for you."},
	}
	for _, c := range cases {
		out := g.Respond(c.message, cfg)
		if out.Content != c.want {
			t.Fatalf("Respond(%q) = %q, expected %q", c.message, out.Content, c.want)
		}
		if out.AIGenerated {
			t.Fatalf("rule-based response should not be ai generated")
		}
		if out.Confidence != nil {
			t.Fatalf("rule-based response should not carry confidence, got %v", *out.Confidence)
		}
		if out.Intent != IntentGeneral {
			t.Fatalf("rule-based intent should be %q, got %q", IntentGeneral, out.Intent)
		}
	}
}

func TestRespond_RuleBasedDefaults(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{AIEnabled: false}

	if out := g.Respond("hello", cfg); out.Content != domain.DefaultGreetingMessage {
		t.Fatalf("expected default greeting, got %q", out.Content)
	}
	if out := g.Respond("goodbye", cfg); out.Content != domain.DefaultGoodbyeMessage {
		t.Fatalf("expected default goodbye, got %q", out.Content)
	}
	if out := g.Respond("question", cfg); out.Content != domain.DefaultDefaultMessage {
		t.Fatalf("expected default message, got %q", out.Content)
	}
}

func TestRespond_FallbackBelowThreshold(t *testing.T) {
	g := NewSeededResponseGenerator(42)
	cfg := domain.ChatbotConfig{AIEnabled: true}

	// general_inquiry (0.6) queda bajo el umbral default 0.7.
	out := g.Respond("unclear request", cfg)
	if out.Intent != IntentFallback {
		t.Fatalf("expected fallback intent, got %q", out.Intent)
	}
	if out.Confidence == nil || *out.Confidence != fallbackConfidence {
		t.Fatalf("expected fallback confidence %v, got %v", fallbackConfidence, out.Confidence)
	}
	if !out.AIGenerated {
		t.Fatalf("fallback response should be ai generated")
	}

	found := false
	for _, phrase := range fallbackPhrases {
		if out.Content == phrase {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("fallback content not in known phrases: %q", out.Content)
	}
}

func TestRespond_FallbackDisabled(t *testing.T) {
	g := NewSeededResponseGenerator(42)
	cfg := domain.ChatbotConfig{
		AIEnabled:       true,
		FallbackEnabled: boolPtr(false),
	}

	// Sin fallback se responde la plantilla del intent aunque la confianza
	// quede bajo el umbral.
	out := g.Respond("unclear request", cfg)
	if out.Intent != IntentGeneralInquiry {
		t.Fatalf("expected general_inquiry, got %q", out.Intent)
	}
	if out.Confidence == nil || *out.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %v", out.Confidence)
	}
}

func TestRespond_ThresholdBoundary(t *testing.T) {
	g := NewSeededResponseGenerator(7)

	// Con umbral igual a la confianza no hay fallback (la condición es
	// estrictamente menor).
	cfg := domain.ChatbotConfig{
		AIEnabled:           true,
		ConfidenceThreshold: floatPtr(0.6),
	}
	out := g.Respond("unclear request", cfg)
	if out.Intent != IntentGeneralInquiry {
		t.Fatalf("expected general_inquiry at threshold boundary, got %q", out.Intent)
	}

	cfg.ConfidenceThreshold = floatPtr(0.61)
	out = g.Respond("unclear request", cfg)
	if out.Intent != IntentFallback {
		t.Fatalf("expected fallback just above boundary, got %q", out.Intent)
	}
}

func TestRespond_IntentTemplates(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{AIEnabled: true}

	out := g.Respond("hello", cfg)
	if out.Intent != IntentGreeting || out.Content != intentTemplates[IntentGreeting] {
		t.Fatalf("greeting: got intent=%q content=%q", out.Intent, out.Content)
	}
	if out.Confidence == nil || *out.Confidence != 0.9 {
		t.Fatalf("greeting confidence: got %v", out.Confidence)
	}

	out = g.Respond("how much is it", cfg)
	if out.Content != intentTemplates[IntentPricingInquiry] {
		t.Fatalf("pricing: got %q", out.Content)
	}
}

func TestRespond_CustomInstructions(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:          true,
		CustomInstructions: "We are open 9-5.",
	}

	out := g.Respond("hello", cfg)
	if !strings.HasSuffix(out.Content, " We are open 9-5.") {
		t.Fatalf("expected custom instructions appended on greeting, got %q", out.Content)
	}

	// Los intents que no son greeting/general no llevan instrucciones.
	out = g.Respond("what is the price", cfg)
	if strings.Contains(out.Content, "We are open 9-5.") {
		t.Fatalf("pricing should not carry custom instructions, got %q", out.Content)
	}
}

func TestRespond_FriendlyPersonality(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "friendly",
	}

	out := g.Respond("hello", cfg)
	if !strings.HasPrefix(out.Content, "Hi there! 😊") {
		t.Fatalf("expected friendly greeting rewrite, got %q", out.Content)
	}

	out = g.Respond("how much does it cost", cfg)
	if !strings.HasPrefix(out.Content, "I'd love to help you with pricing") {
		t.Fatalf("expected friendly pricing rewrite, got %q", out.Content)
	}
}

func TestRespond_FormalPersonality(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "formal",
	}

	out := g.Respond("I need help", cfg)
	if strings.Contains(out.Content, "I'd") {
		t.Fatalf("formal response should expand contractions, got %q", out.Content)
	}
	if !strings.HasPrefix(out.Content, "I would be happy to help") {
		t.Fatalf("unexpected formal rewrite: %q", out.Content)
	}
}

func TestRespond_FriendlyAndFormalChain(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "friendly but formal",
	}

	// Friendly aplica primero ("Hello!" -> "Hi there! 😊"), después formal
	// reescribe "Hi there!" -> "Good day," y expande "I'd".
	out := g.Respond("hello", cfg)
	if !strings.HasPrefix(out.Content, "Good day, 😊") {
		t.Fatalf("expected chained personality rewrite, got %q", out.Content)
	}
	if strings.Contains(out.Content, "I'd") {
		t.Fatalf("chained rewrite should not leave contractions, got %q", out.Content)
	}
}

func TestRespond_PersonalityNoTriggers(t *testing.T) {
	g := NewSeededResponseGenerator(1)

	plain := g.Respond("can I book a slot", domain.ChatbotConfig{AIEnabled: true})
	friendly := g.Respond("can I book a slot", domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "friendly",
	})
	// La plantilla de booking usa "I can", que friendly sí reescribe.
	if friendly.Content == plain.Content {
		t.Fatalf("expected friendly rewrite on booking template")
	}

	// Sin frases gatillo la transformación es identidad.
	goodbyePlain := g.Respond("bye", domain.ChatbotConfig{AIEnabled: true})
	goodbyeFriendly := g.Respond("bye", domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "friendly",
	})
	if goodbyePlain.Content != goodbyeFriendly.Content {
		t.Fatalf("goodbye template has no triggers, expected identical output")
	}
}

func TestRespond_SeededFallbackDeterministic(t *testing.T) {
	cfg := domain.ChatbotConfig{AIEnabled: true}

	a := NewSeededResponseGenerator(99)
	b := NewSeededResponseGenerator(99)
	for i := 0; i < 10; i++ {
		outA := a.Respond("unclear", cfg)
		outB := b.Respond("unclear", cfg)
		if outA.Content != outB.Content {
			t.Fatalf("draw %d: same seed produced %q vs %q", i, outA.Content, outB.Content)
		}
	}
}

func TestRespond_UnknownPersonalityKeepsTemplate(t *testing.T) {
	g := NewSeededResponseGenerator(1)
	cfg := domain.ChatbotConfig{
		AIEnabled:   true,
		Personality: "sarcastic",
	}
	out := g.Respond("hello", cfg)
	if out.Content != intentTemplates[IntentGreeting] {
		t.Fatalf("unknown personality should keep template, got %q", out.Content)
	}
}
