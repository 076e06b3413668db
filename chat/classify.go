package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardsavvy/api/llm"
	"cardsavvy/api/logger"
	"cardsavvy/api/models"
)

// Primary conversation contexts.
const (
	ContextFlight   = "flight"
	ContextHotel    = "hotel"
	ContextShopping = "shopping"
	ContextGeneral  = "general"
)

// Entities extracted from a user turn.
type Entities struct {
	Locations        []string `json:"locations"`
	Dates            []string `json:"dates"`
	Travelers        int      `json:"travelers"`
	CardPreference   string   `json:"card_preference"`
	Budget           string   `json:"budget"`
	Category         string   `json:"category"`
	SecondaryIntents []string `json:"secondary_intents"`
}

// Classification is the structured result of the intent-classification call.
type Classification struct {
	PrimaryContext string   `json:"primary_context"`
	Intent         string   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	Clarification  string   `json:"clarification,omitempty"`
	Entities       Entities `json:"entities"`
}

// DefaultClassification is substituted whenever the classification call or
// its parsing fails; the chat send action never hard-errors on it.
func DefaultClassification() Classification {
	return Classification{
		PrimaryContext: ContextGeneral,
		Intent:         "general conversation",
		Confidence:     0.5,
	}
}

const classifySystem = "You classify a user's message in a credit-card assistant chat. Reply with a single JSON object: " +
	`{"primary_context": "flight"|"hotel"|"shopping"|"general", "intent": string, "confidence": number 0-1, ` +
	`"clarification": string or "", "entities": {"locations": [string], "dates": [string], "travelers": number, ` +
	`"card_preference": string, "budget": string, "category": string, "secondary_intents": [string]}}. No other text.`

// Classify re-derives intent from scratch each turn over a bounded window of
// recent history. Any failure yields DefaultClassification.
func (a *Assistant) Classify(ctx context.Context, history []models.ChatMessage, text string) Classification {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "New message: %s", text)

	raw, err := a.llm.Complete(ctx, classifySystem, b.String(), 0.1, 400)
	if err != nil {
		logger.Get().Warn("intent classification call failed, using default", zap.Error(err))
		return DefaultClassification()
	}

	obj, ok := llm.ExtractObject(raw)
	if !ok {
		logger.Get().Warn("unparseable classification reply, using default", zap.String("raw", raw))
		return DefaultClassification()
	}

	var cls Classification
	if err := json.Unmarshal(obj, &cls); err != nil {
		logger.Get().Warn("classification JSON did not match expected shape",
			zap.String("raw", raw), zap.Error(err))
		return DefaultClassification()
	}

	switch cls.PrimaryContext {
	case ContextFlight, ContextHotel, ContextShopping, ContextGeneral:
	default:
		cls.PrimaryContext = ContextGeneral
	}
	if cls.Confidence < 0 || cls.Confidence > 1 {
		cls.Confidence = 0.5
	}
	return cls
}

func defaultReply(cls Classification) string {
	switch cls.PrimaryContext {
	case ContextFlight:
		return "I can help you find flights and pick the best card to book them with. Could you tell me where you want to fly and when?"
	case ContextHotel:
		return "I can help with hotel stays and which of your cards earns the most on them. Which city are you looking at?"
	case ContextShopping:
		return "I can point you to current shopping offers and the best card to pay with. What are you planning to buy?"
	default:
		return "I'm here to help with flights, hotels, shopping offers, and getting the most from your cards. What would you like to know?"
	}
}
