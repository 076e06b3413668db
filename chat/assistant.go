// Package chat implements the conversational assistant: per-turn intent
// classification and reply generation conditioned on the user's stored cards.
// State across turns is the persisted message list, nothing else.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

// Completer is the single LLM dependency of the assistant.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// historyWindow bounds how many recent turns feed intent classification.
const historyWindow = 8

const welcomeText = "Hi! I'm your CardSavvy assistant. Ask me about flights, hotels, or shopping deals and " +
	"I'll tell you how to get the most from your cards."

// Assistant answers chat turns for a user.
type Assistant struct {
	llm   Completer
	store storage.Storage
}

// NewAssistant wires the assistant.
func NewAssistant(llm Completer, store storage.Storage) *Assistant {
	return &Assistant{llm: llm, store: store}
}

// History returns the user's messages in order, seeding a welcome message for
// first-time users.
func (a *Assistant) History(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	msgs, err := a.store.ListChatMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	welcome, err := a.seedWelcome(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []models.ChatMessage{*welcome}, nil
}

// Clear deletes all of the user's messages and reseeds exactly one assistant
// welcome message.
func (a *Assistant) Clear(ctx context.Context, userID string) (*models.ChatMessage, error) {
	if err := a.store.DeleteChatMessages(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear chat: %w", err)
	}
	return a.seedWelcome(ctx, userID)
}

// Send appends the user's message, classifies intent over the recent window,
// generates a reply referencing the user's stored cards, and appends it. LLM
// failures degrade to fixed defaults; only storage failures surface.
func (a *Assistant) Send(ctx context.Context, userID, text string) (*models.ChatMessage, Classification, error) {
	history, err := a.store.ListChatMessages(ctx, userID)
	if err != nil {
		return nil, Classification{}, fmt.Errorf("failed to load chat history: %w", err)
	}

	userMsg := newMessage(userID, models.RoleUser, text)
	if err := a.store.AppendChatMessage(ctx, userMsg); err != nil {
		return nil, Classification{}, fmt.Errorf("failed to append message: %w", err)
	}

	cls := a.Classify(ctx, window(history), text)
	reply := a.respond(ctx, userID, cls, text)

	assistantMsg := newMessage(userID, models.RoleAssistant, reply)
	if err := a.store.AppendChatMessage(ctx, assistantMsg); err != nil {
		return nil, Classification{}, fmt.Errorf("failed to append reply: %w", err)
	}
	return assistantMsg, cls, nil
}

// Generate runs a full turn and returns the reply text, swallowing storage
// errors behind the default reply. Used by the streaming worker, which has no
// error channel back to the client.
func (a *Assistant) Generate(ctx context.Context, userID, text string) string {
	msg, cls, err := a.Send(ctx, userID, text)
	if err != nil {
		logger.Get().Error("chat turn failed", zap.String("user_id", userID), zap.Error(err))
		return defaultReply(DefaultClassification())
	}
	_ = cls
	return msg.Content
}

func (a *Assistant) respond(ctx context.Context, userID string, cls Classification, text string) string {
	cardNames := a.cardNames(ctx, userID)

	var b strings.Builder
	b.WriteString("You are the CardSavvy assistant, helping a user maximize value from their credit cards. ")
	fmt.Fprintf(&b, "The conversation is about: %s (%s). ", cls.PrimaryContext, cls.Intent)
	if len(cardNames) > 0 {
		fmt.Fprintf(&b, "The user holds these cards and you should reference them by name where relevant: %s. ",
			strings.Join(cardNames, ", "))
	} else {
		b.WriteString("The user has not added any cards yet; suggest adding one for tailored advice. ")
	}
	b.WriteString("Be concise and concrete.")

	reply, err := a.llm.Complete(ctx, b.String(), text, 0.7, 500)
	if err != nil {
		logger.Get().Warn("reply generation failed, using default reply",
			zap.String("user_id", userID), zap.Error(err))
		return defaultReply(cls)
	}
	return strings.TrimSpace(reply)
}

func (a *Assistant) cardNames(ctx context.Context, userID string) []string {
	cards, err := a.store.ListCards(ctx, userID)
	if err != nil {
		logger.Get().Warn("failed to load cards for chat context",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(cards))
	for _, card := range cards {
		names = append(names, card.CardName+" ("+card.Issuer+")")
	}
	return names
}

func (a *Assistant) seedWelcome(ctx context.Context, userID string) (*models.ChatMessage, error) {
	welcome := newMessage(userID, models.RoleAssistant, welcomeText)
	if err := a.store.AppendChatMessage(ctx, welcome); err != nil {
		return nil, fmt.Errorf("failed to seed welcome message: %w", err)
	}
	return welcome, nil
}

func newMessage(userID, role, content string) *models.ChatMessage {
	return &models.ChatMessage{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func window(history []models.ChatMessage) []models.ChatMessage {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}
