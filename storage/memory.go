package storage

import (
	"context"
	"sort"
	"sync"

	"cardsavvy/api/models"
)

// Memory is the in-process backend used for demos and tests. It seeds a
// deterministic catalog at construction. All maps are guarded by mu since
// gin serves requests concurrently.
type Memory struct {
	mu              sync.RWMutex
	users           map[string]*models.User
	cards           map[string]*models.CreditCard
	profiles        map[string]*models.FinancialProfile
	messages        map[string][]models.ChatMessage
	recommendations map[string][]models.CardRecommendation
	flights         []models.Flight
	hotels          []models.Hotel
	offers          []models.ShoppingOffer
}

// NewMemory constructs the seeded in-memory backend.
func NewMemory() *Memory {
	m := &Memory{
		users:           make(map[string]*models.User),
		cards:           make(map[string]*models.CreditCard),
		profiles:        make(map[string]*models.FinancialProfile),
		messages:        make(map[string][]models.ChatMessage),
		recommendations: make(map[string][]models.CardRecommendation),
	}
	m.flights = seedFlights()
	m.hotels = seedHotels()
	m.offers = seedShoppingOffers()
	return m
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByAuthSubject(_ context.Context, subject string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.AuthSubject != "" && user.AuthSubject == subject {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListCards(_ context.Context, userID string) ([]models.CreditCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cards := []models.CreditCard{}
	for _, card := range m.cards {
		if card.UserID == userID {
			cards = append(cards, *card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.Before(cards[j].CreatedAt) })
	return cards, nil
}

func (m *Memory) GetCard(_ context.Context, id string) (*models.CreditCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *card
	return &cp, nil
}

func (m *Memory) CreateCard(_ context.Context, card *models.CreditCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *card
	m.cards[card.ID] = &cp
	return nil
}

func (m *Memory) DeleteCard(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok || card.UserID != userID {
		return ErrNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *Memory) ListFlights(context.Context) ([]models.Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Flight(nil), m.flights...), nil
}

func (m *Memory) ListHotels(context.Context) ([]models.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Hotel(nil), m.hotels...), nil
}

func (m *Memory) ListShoppingOffers(context.Context) ([]models.ShoppingOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ShoppingOffer(nil), m.offers...), nil
}

func (m *Memory) GetFinancialProfile(_ context.Context, userID string) (*models.FinancialProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *profile
	cp.MonthlySpending = cloneSpending(profile.MonthlySpending)
	return &cp, nil
}

func (m *Memory) UpsertFinancialProfile(_ context.Context, profile *models.FinancialProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *profile
	cp.MonthlySpending = cloneSpending(profile.MonthlySpending)
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *Memory) ListChatMessages(_ context.Context, userID string) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := append([]models.ChatMessage(nil), m.messages[userID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs, nil
}

func (m *Memory) AppendChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.UserID] = append(m.messages[msg.UserID], *msg)
	return nil
}

func (m *Memory) DeleteChatMessages(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, userID)
	return nil
}

func (m *Memory) GetRecommendations(_ context.Context, userID string) ([]models.CardRecommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.recommendations[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.CardRecommendation(nil), recs...), nil
}

func (m *Memory) SaveRecommendations(_ context.Context, userID string, recs []models.CardRecommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommendations[userID] = append([]models.CardRecommendation(nil), recs...)
	return nil
}

func cloneSpending(src map[string]float64) map[string]float64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
