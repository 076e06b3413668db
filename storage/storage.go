// Package storage defines the persistence contract and its three
// interchangeable implementations (memory, postgres, mongo). Business logic
// depends only on the Storage interface; the backend is an external
// configuration decision made at startup.
package storage

import (
	"context"
	"errors"

	"cardsavvy/api/models"
)

// ErrNotFound signals ordinary absence of an entity. Callers branch on it;
// it is never wrapped around driver internals.
var ErrNotFound = errors.New("not found")

// Storage is the CRUD contract shared by all backends.
type Storage interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByAuthSubject(ctx context.Context, subject string) (*models.User, error)

	// Credit cards
	ListCards(ctx context.Context, userID string) ([]models.CreditCard, error)
	GetCard(ctx context.Context, id string) (*models.CreditCard, error)
	CreateCard(ctx context.Context, card *models.CreditCard) error
	DeleteCard(ctx context.Context, userID, id string) error

	// Catalog
	ListFlights(ctx context.Context) ([]models.Flight, error)
	ListHotels(ctx context.Context) ([]models.Hotel, error)
	ListShoppingOffers(ctx context.Context) ([]models.ShoppingOffer, error)

	// Financial profile
	GetFinancialProfile(ctx context.Context, userID string) (*models.FinancialProfile, error)
	UpsertFinancialProfile(ctx context.Context, profile *models.FinancialProfile) error

	// Chat
	ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error)
	AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error
	DeleteChatMessages(ctx context.Context, userID string) error

	// Recommendations (last generated set per user)
	GetRecommendations(ctx context.Context, userID string) ([]models.CardRecommendation, error)
	SaveRecommendations(ctx context.Context, userID string, recs []models.CardRecommendation) error
}
