package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"cardsavvy/api/models"
)

// Collection names in the cardsavvy database.
const (
	mongoDatabase         = "cardsavvy"
	usersCollection       = "users"
	cardsCollection       = "credit_cards"
	flightsCollection     = "flights"
	hotelsCollection      = "hotels"
	offersCollection      = "shopping_offers"
	profilesCollection    = "financial_profiles"
	messagesCollection    = "chat_messages"
	recsCollection        = "card_recommendations"
)

// Mongo is the document-store backend.
type Mongo struct {
	client *mongo.Client
}

// NewMongo connects to the given URI using the stable server API.
func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}
	return &Mongo{client: client}, nil
}

func (m *Mongo) collection(name string) *mongo.Collection {
	return m.client.Database(mongoDatabase).Collection(name)
}

func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := m.collection(usersCollection).InsertOne(ctx, user); err != nil {
		return fmt.Errorf("error creating user %s: %w", user.Username, err)
	}
	return nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *Mongo) GetUserByAuthSubject(ctx context.Context, subject string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"auth_subject": subject})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	user := &models.User{}
	err := m.collection(usersCollection).FindOne(ctx, filter).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

func (m *Mongo) ListCards(ctx context.Context, userID string) ([]models.CreditCard, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := m.collection(cardsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing cards: %w", err)
	}
	return decodeAll[models.CreditCard](ctx, cursor)
}

func (m *Mongo) GetCard(ctx context.Context, id string) (*models.CreditCard, error) {
	card := &models.CreditCard{}
	err := m.collection(cardsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(card)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching card %s: %w", id, err)
	}
	return card, nil
}

func (m *Mongo) CreateCard(ctx context.Context, card *models.CreditCard) error {
	if _, err := m.collection(cardsCollection).InsertOne(ctx, card); err != nil {
		return fmt.Errorf("error creating card: %w", err)
	}
	return nil
}

func (m *Mongo) DeleteCard(ctx context.Context, userID, id string) error {
	res, err := m.collection(cardsCollection).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("error deleting card %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ListFlights(ctx context.Context) ([]models.Flight, error) {
	cursor, err := m.collection(flightsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing flights: %w", err)
	}
	return decodeAll[models.Flight](ctx, cursor)
}

func (m *Mongo) ListHotels(ctx context.Context) ([]models.Hotel, error) {
	cursor, err := m.collection(hotelsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing hotels: %w", err)
	}
	return decodeAll[models.Hotel](ctx, cursor)
}

func (m *Mongo) ListShoppingOffers(ctx context.Context) ([]models.ShoppingOffer, error) {
	cursor, err := m.collection(offersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing shopping offers: %w", err)
	}
	return decodeAll[models.ShoppingOffer](ctx, cursor)
}

func (m *Mongo) GetFinancialProfile(ctx context.Context, userID string) (*models.FinancialProfile, error) {
	profile := &models.FinancialProfile{}
	err := m.collection(profilesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching financial profile: %w", err)
	}
	return profile, nil
}

func (m *Mongo) UpsertFinancialProfile(ctx context.Context, profile *models.FinancialProfile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.collection(profilesCollection).ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	if err != nil {
		return fmt.Errorf("error upserting financial profile: %w", err)
	}
	return nil
}

func (m *Mongo) ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.collection(messagesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	return decodeAll[models.ChatMessage](ctx, cursor)
}

func (m *Mongo) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if _, err := m.collection(messagesCollection).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("error appending chat message: %w", err)
	}
	return nil
}

func (m *Mongo) DeleteChatMessages(ctx context.Context, userID string) error {
	if _, err := m.collection(messagesCollection).DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("error deleting chat messages: %w", err)
	}
	return nil
}

type recommendationSet struct {
	UserID          string                      `bson:"_id"`
	Recommendations []models.CardRecommendation `bson:"recommendations"`
}

func (m *Mongo) GetRecommendations(ctx context.Context, userID string) ([]models.CardRecommendation, error) {
	set := &recommendationSet{}
	err := m.collection(recsCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching recommendations: %w", err)
	}
	return set.Recommendations, nil
}

func (m *Mongo) SaveRecommendations(ctx context.Context, userID string, recs []models.CardRecommendation) error {
	opts := options.Replace().SetUpsert(true)
	set := &recommendationSet{UserID: userID, Recommendations: recs}
	if _, err := m.collection(recsCollection).ReplaceOne(ctx, bson.M{"_id": userID}, set, opts); err != nil {
		return fmt.Errorf("error saving recommendations: %w", err)
	}
	return nil
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)

	items := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding document: %w", err)
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return items, nil
}
