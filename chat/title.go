package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"cardsavvy/api/models"
)

const defaultTitle = "New Chat"

var titleCleaner = regexp.MustCompile(`[^a-zA-Z0-9 ':,;-]+`)

// Title generates a short descriptive title from the user's first message.
func (a *Assistant) Title(ctx context.Context, userID string) (string, error) {
	msgs, err := a.store.ListChatMessages(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	var first string
	for _, msg := range msgs {
		if msg.Role == models.RoleUser {
			first = msg.Content
			break
		}
	}
	if first == "" {
		return defaultTitle, nil
	}

	system := "You generate short, descriptive titles for credit-card assistant chat conversations. " +
		"Keep it under 5 words using only alphanumeric characters."
	raw, err := a.llm.Complete(ctx, system, fmt.Sprintf("Create a short title for this chat: %q", first), 0.3, 20)
	if err != nil {
		// Title is cosmetic; never fail the request over it.
		return defaultTitle, nil
	}

	title := strings.TrimSpace(titleCleaner.ReplaceAllString(raw, ""))
	if title == "" {
		return defaultTitle, nil
	}
	return title, nil
}
