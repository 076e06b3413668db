package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"cardsavvy/api/models"
)

// Postgres is the relational backend. Maps and string slices are stored as
// JSONB columns.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens and pings a connection using the given URL.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close(context.Context) error { return p.db.Close() }

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, name, auth_subject, tier, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`
	_, err := p.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Name, user.AuthSubject,
		user.Tier, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating user %s: %w", user.Username, err)
	}
	return nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, userSelect+`WHERE id = $1`, id))
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, userSelect+`WHERE username = $1`, username))
}

func (p *Postgres) GetUserByAuthSubject(ctx context.Context, subject string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, userSelect+`WHERE auth_subject = $1`, subject))
}

const userSelect = `
	SELECT id, username, email, name, COALESCE(auth_subject, ''), tier, password_hash, created_at
	FROM users
`

func (p *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Name,
		&user.AuthSubject, &user.Tier, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return user, nil
}

func (p *Postgres) ListCards(ctx context.Context, userID string) ([]models.CreditCard, error) {
	query := `
		SELECT id, user_id, card_name, issuer, masked_number, points_balance, expiry, card_type, color, created_at
		FROM credit_cards
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing cards for user %s: %w", userID, err)
	}
	defer rows.Close()

	cards := []models.CreditCard{}
	for rows.Next() {
		var card models.CreditCard
		if err := rows.Scan(&card.ID, &card.UserID, &card.CardName, &card.Issuer,
			&card.MaskedNumber, &card.PointsBalance, &card.Expiry, &card.CardType,
			&card.Color, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (p *Postgres) GetCard(ctx context.Context, id string) (*models.CreditCard, error) {
	query := `
		SELECT id, user_id, card_name, issuer, masked_number, points_balance, expiry, card_type, color, created_at
		FROM credit_cards
		WHERE id = $1
	`
	var card models.CreditCard
	err := p.db.QueryRowContext(ctx, query, id).Scan(&card.ID, &card.UserID,
		&card.CardName, &card.Issuer, &card.MaskedNumber, &card.PointsBalance,
		&card.Expiry, &card.CardType, &card.Color, &card.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting card %s: %w", id, err)
	}
	return &card, nil
}

func (p *Postgres) CreateCard(ctx context.Context, card *models.CreditCard) error {
	query := `
		INSERT INTO credit_cards (id, user_id, card_name, issuer, masked_number, points_balance, expiry, card_type, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := p.db.ExecContext(ctx, query, card.ID, card.UserID, card.CardName,
		card.Issuer, card.MaskedNumber, card.PointsBalance, card.Expiry,
		card.CardType, card.Color, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating card for user %s: %w", card.UserID, err)
	}
	return nil
}

func (p *Postgres) DeleteCard(ctx context.Context, userID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListFlights(ctx context.Context) ([]models.Flight, error) {
	query := `
		SELECT id, airline, flight_number, origin, destination, departure_date, cabin_class, price, points_required
		FROM flights
		ORDER BY departure_date
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing flights: %w", err)
	}
	defer rows.Close()

	flights := []models.Flight{}
	for rows.Next() {
		var f models.Flight
		if err := rows.Scan(&f.ID, &f.Airline, &f.FlightNumber, &f.Origin,
			&f.Destination, &f.DepartureDate, &f.CabinClass, &f.Price, &f.PointsRequired); err != nil {
			return nil, fmt.Errorf("error scanning flight: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (p *Postgres) ListHotels(ctx context.Context) ([]models.Hotel, error) {
	query := `
		SELECT id, name, city, price_per_night, rating, points_required
		FROM hotels
		ORDER BY name
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing hotels: %w", err)
	}
	defer rows.Close()

	hotels := []models.Hotel{}
	for rows.Next() {
		var h models.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.PricePerNight, &h.Rating, &h.PointsRequired); err != nil {
			return nil, fmt.Errorf("error scanning hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

func (p *Postgres) ListShoppingOffers(ctx context.Context) ([]models.ShoppingOffer, error) {
	query := `
		SELECT id, merchant, title, category, cashback_pct, valid_until
		FROM shopping_offers
		ORDER BY merchant
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing shopping offers: %w", err)
	}
	defer rows.Close()

	offers := []models.ShoppingOffer{}
	for rows.Next() {
		var o models.ShoppingOffer
		if err := rows.Scan(&o.ID, &o.Merchant, &o.Title, &o.Category, &o.CashbackPct, &o.ValidUntil); err != nil {
			return nil, fmt.Errorf("error scanning shopping offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (p *Postgres) GetFinancialProfile(ctx context.Context, userID string) (*models.FinancialProfile, error) {
	query := `
		SELECT user_id, annual_income, credit_score, monthly_spending, primary_categories,
		       travel_frequency, dining_frequency, preferred_airlines,
		       online_shopping_pct, in_store_shopping_pct, existing_cards, preferred_benefits, updated_at
		FROM financial_profiles
		WHERE user_id = $1
	`
	profile := &models.FinancialProfile{}
	var spending, categories, airlines, existing, benefits []byte
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.AnnualIncome, &profile.CreditScore,
		&spending, &categories, &profile.TravelFrequency, &profile.DiningFrequency,
		&airlines, &profile.OnlineShoppingPct, &profile.InStoreShoppingPct,
		&existing, &benefits, &profile.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting financial profile for user %s: %w", userID, err)
	}

	if err := unmarshalJSONB(spending, &profile.MonthlySpending); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(categories, &profile.PrimaryCategories); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(airlines, &profile.PreferredAirlines); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(existing, &profile.ExistingCards); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(benefits, &profile.PreferredBenefits); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *Postgres) UpsertFinancialProfile(ctx context.Context, profile *models.FinancialProfile) error {
	query := `
		INSERT INTO financial_profiles (user_id, annual_income, credit_score, monthly_spending,
			primary_categories, travel_frequency, dining_frequency, preferred_airlines,
			online_shopping_pct, in_store_shopping_pct, existing_cards, preferred_benefits, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			annual_income = EXCLUDED.annual_income,
			credit_score = EXCLUDED.credit_score,
			monthly_spending = EXCLUDED.monthly_spending,
			primary_categories = EXCLUDED.primary_categories,
			travel_frequency = EXCLUDED.travel_frequency,
			dining_frequency = EXCLUDED.dining_frequency,
			preferred_airlines = EXCLUDED.preferred_airlines,
			online_shopping_pct = EXCLUDED.online_shopping_pct,
			in_store_shopping_pct = EXCLUDED.in_store_shopping_pct,
			existing_cards = EXCLUDED.existing_cards,
			preferred_benefits = EXCLUDED.preferred_benefits,
			updated_at = EXCLUDED.updated_at
	`
	spending, err := json.Marshal(profile.MonthlySpending)
	if err != nil {
		return err
	}
	categories, err := json.Marshal(profile.PrimaryCategories)
	if err != nil {
		return err
	}
	airlines, err := json.Marshal(profile.PreferredAirlines)
	if err != nil {
		return err
	}
	existing, err := json.Marshal(profile.ExistingCards)
	if err != nil {
		return err
	}
	benefits, err := json.Marshal(profile.PreferredBenefits)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, query, profile.UserID, profile.AnnualIncome,
		profile.CreditScore, spending, categories, profile.TravelFrequency,
		profile.DiningFrequency, airlines, profile.OnlineShoppingPct,
		profile.InStoreShoppingPct, existing, benefits, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting financial profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

func (p *Postgres) ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, content, ts
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing chat messages for user %s: %w", userID, err)
	}
	defer rows.Close()

	msgs := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (p *Postgres) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, user_id, role, content, ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := p.db.ExecContext(ctx, query, msg.ID, msg.UserID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("error appending chat message for user %s: %w", msg.UserID, err)
	}
	return nil
}

func (p *Postgres) DeleteChatMessages(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting chat messages for user %s: %w", userID, err)
	}
	return nil
}

func (p *Postgres) GetRecommendations(ctx context.Context, userID string) ([]models.CardRecommendation, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT recommendations FROM card_recommendations WHERE user_id = $1`, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting recommendations for user %s: %w", userID, err)
	}

	var recs []models.CardRecommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, fmt.Errorf("error decoding recommendations for user %s: %w", userID, err)
	}
	return recs, nil
}

func (p *Postgres) SaveRecommendations(ctx context.Context, userID string, recs []models.CardRecommendation) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO card_recommendations (user_id, recommendations)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET recommendations = EXCLUDED.recommendations
	`
	if _, err := p.db.ExecContext(ctx, query, userID, payload); err != nil {
		return fmt.Errorf("error saving recommendations for user %s: %w", userID, err)
	}
	return nil
}

func unmarshalJSONB(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error decoding jsonb column: %w", err)
	}
	return nil
}
