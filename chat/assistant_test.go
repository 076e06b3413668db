package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

// scriptedCompleter returns canned replies in order, or a fixed error.
type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
	systems []string
}

func (s *scriptedCompleter) Complete(_ context.Context, system, _ string, _ float64, _ int) (string, error) {
	s.calls++
	s.systems = append(s.systems, system)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestHistorySeedsWelcome(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	a := NewAssistant(&scriptedCompleter{}, store)

	msgs, err := a.History(ctx, "alice")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want exactly one welcome", len(msgs))
	}
	if msgs[0].Role != models.RoleAssistant {
		t.Errorf("welcome role = %q, want assistant", msgs[0].Role)
	}

	// Second call must not seed again.
	msgs, err = a.History(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Errorf("got %d messages on second call, want 1", len(msgs))
	}
}

func TestClearReseedsExactlyOneWelcome(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	llm := &scriptedCompleter{replies: []string{
		`{"primary_context":"general","intent":"chat","confidence":0.9,"entities":{}}`,
		"Here is some advice.",
	}}
	a := NewAssistant(llm, store)

	if _, err := a.History(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Send(ctx, "alice", "what card should I use?"); err != nil {
		t.Fatal(err)
	}

	welcome, err := a.Clear(ctx, "alice")
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if welcome.Role != models.RoleAssistant {
		t.Errorf("welcome role = %q", welcome.Role)
	}

	msgs, err := store.ListChatMessages(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages after clear, want exactly 1", len(msgs))
	}
	if msgs[0].Content != welcome.Content {
		t.Errorf("stored message differs from returned welcome")
	}
}

func TestSendPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	llm := &scriptedCompleter{replies: []string{
		`{"primary_context":"flight","intent":"book flight","confidence":0.95,"entities":{"locations":["Mumbai"]}}`,
		"Use your Axis Atlas for flight bookings.",
	}}
	a := NewAssistant(llm, store)

	msg, cls, err := a.Send(ctx, "alice", "which card for flights to Mumbai?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.Role != models.RoleAssistant {
		t.Errorf("reply role = %q", msg.Role)
	}
	if msg.Content != "Use your Axis Atlas for flight bookings." {
		t.Errorf("reply content = %q", msg.Content)
	}
	if cls.PrimaryContext != ContextFlight {
		t.Errorf("PrimaryContext = %q, want flight", cls.PrimaryContext)
	}
	if len(cls.Entities.Locations) != 1 || cls.Entities.Locations[0] != "Mumbai" {
		t.Errorf("Entities.Locations = %v", cls.Entities.Locations)
	}

	msgs, err := store.ListChatMessages(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d stored messages, want user turn plus reply", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Errorf("stored roles = %q, %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestSendDegradesWhenModelFails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	a := NewAssistant(&scriptedCompleter{err: errors.New("model unavailable")}, store)

	msg, cls, err := a.Send(ctx, "alice", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v, model failures must not surface", err)
	}
	if cls.PrimaryContext != ContextGeneral || cls.Confidence != 0.5 {
		t.Errorf("classification = %+v, want default", cls)
	}
	if msg.Content != defaultReply(DefaultClassification()) {
		t.Errorf("reply = %q, want the default reply", msg.Content)
	}
}

func TestRespondMentionsStoredCards(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	if err := store.CreateCard(ctx, &models.CreditCard{
		ID: "c1", UserID: "alice", CardName: "Axis Atlas", Issuer: "Axis Bank",
	}); err != nil {
		t.Fatal(err)
	}

	llm := &scriptedCompleter{replies: []string{
		`{"primary_context":"general","intent":"chat","confidence":0.8,"entities":{}}`,
		"Advice.",
	}}
	a := NewAssistant(llm, store)
	if _, _, err := a.Send(ctx, "alice", "hi"); err != nil {
		t.Fatal(err)
	}

	// Second call is reply generation; its system prompt carries the wallet.
	if len(llm.systems) != 2 {
		t.Fatalf("got %d model calls, want 2", len(llm.systems))
	}
	if !strings.Contains(llm.systems[1], "Axis Atlas (Axis Bank)") {
		t.Errorf("reply prompt does not reference the user's card: %q", llm.systems[1])
	}
}

func TestClassifyClampsAndDefaults(t *testing.T) {
	store := storage.NewMemory()

	tests := []struct {
		name        string
		reply       string
		err         error
		wantContext string
		wantConf    float64
	}{
		{
			name:        "fenced reply parses",
			reply:       "```json\n{\"primary_context\":\"hotel\",\"intent\":\"find hotel\",\"confidence\":0.9,\"entities\":{}}\n```",
			wantContext: ContextHotel,
			wantConf:    0.9,
		},
		{
			name:        "unknown context coerced to general",
			reply:       `{"primary_context":"spaceflight","intent":"x","confidence":0.9,"entities":{}}`,
			wantContext: ContextGeneral,
			wantConf:    0.9,
		},
		{
			name:        "out of range confidence reset",
			reply:       `{"primary_context":"flight","intent":"x","confidence":7,"entities":{}}`,
			wantContext: ContextFlight,
			wantConf:    0.5,
		},
		{
			name:        "prose reply falls back to default",
			reply:       "This seems to be about flights.",
			wantContext: ContextGeneral,
			wantConf:    0.5,
		},
		{
			name:        "call failure falls back to default",
			err:         errors.New("model unavailable"),
			wantContext: ContextGeneral,
			wantConf:    0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(&scriptedCompleter{replies: []string{tt.reply}, err: tt.err}, store)
			cls := a.Classify(context.Background(), nil, "some message")
			if cls.PrimaryContext != tt.wantContext {
				t.Errorf("PrimaryContext = %q, want %q", cls.PrimaryContext, tt.wantContext)
			}
			if cls.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", cls.Confidence, tt.wantConf)
			}
		})
	}
}

func TestTitleFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	t.Run("no user message yet", func(t *testing.T) {
		a := NewAssistant(&scriptedCompleter{}, store)
		title, err := a.Title(ctx, "alice")
		if err != nil {
			t.Fatalf("Title() error = %v", err)
		}
		if title != defaultTitle {
			t.Errorf("title = %q, want %q", title, defaultTitle)
		}
	})

	t.Run("generated title is cleaned", func(t *testing.T) {
		if err := store.AppendChatMessage(ctx, &models.ChatMessage{
			ID: "01A", UserID: "bob", Role: models.RoleUser, Content: "flights to Goa",
		}); err != nil {
			t.Fatal(err)
		}
		a := NewAssistant(&scriptedCompleter{replies: []string{"\"Goa Flight Plans\"\n"}}, store)
		title, err := a.Title(ctx, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if title != "Goa Flight Plans" {
			t.Errorf("title = %q, want %q", title, "Goa Flight Plans")
		}
	})

	t.Run("model failure yields default title", func(t *testing.T) {
		if err := store.AppendChatMessage(ctx, &models.ChatMessage{
			ID: "01B", UserID: "carol", Role: models.RoleUser, Content: "hello",
		}); err != nil {
			t.Fatal(err)
		}
		a := NewAssistant(&scriptedCompleter{err: errors.New("model unavailable")}, store)
		title, err := a.Title(ctx, "carol")
		if err != nil {
			t.Fatal(err)
		}
		if title != defaultTitle {
			t.Errorf("title = %q, want %q", title, defaultTitle)
		}
	})
}
