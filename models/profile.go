package models

import "time"

// Frequency describes how often a user travels or dines out.
type Frequency string

const (
	FrequencyRarely       Frequency = "rarely"
	FrequencyOccasionally Frequency = "occasionally"
	FrequencyFrequently   Frequency = "frequently"
)

// FinancialProfile is the one-per-user record driving recommendations.
//
// MonthlySpending keeps a key for every category the user ever touched;
// deselecting a category zeroes its amount rather than removing the key, so
// the map shape is stable across submissions.
type FinancialProfile struct {
	UserID             string             `json:"user_id" bson:"_id"`
	AnnualIncome       float64            `json:"annual_income" bson:"annual_income"`
	CreditScore        int                `json:"credit_score" bson:"credit_score"`
	MonthlySpending    map[string]float64 `json:"monthly_spending" bson:"monthly_spending"`
	PrimaryCategories  []string           `json:"primary_spending_categories" bson:"primary_spending_categories"`
	TravelFrequency    Frequency          `json:"travel_frequency" bson:"travel_frequency"`
	DiningFrequency    Frequency          `json:"dining_frequency" bson:"dining_frequency"`
	PreferredAirlines  []string           `json:"preferred_airlines" bson:"preferred_airlines"`
	OnlineShoppingPct  int                `json:"online_shopping_pct" bson:"online_shopping_pct"`
	InStoreShoppingPct int                `json:"in_store_shopping_pct" bson:"in_store_shopping_pct"`
	ExistingCards      []string           `json:"existing_cards" bson:"existing_cards"`
	PreferredBenefits  []string           `json:"preferred_benefits" bson:"preferred_benefits"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// MergeSpending unions the submitted spending map into the previously stored
// one. Categories absent from the submission are zeroed, never dropped.
func MergeSpending(existing, submitted map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(existing)+len(submitted))
	for category := range existing {
		merged[category] = 0
	}
	for category, amount := range submitted {
		merged[category] = amount
	}
	return merged
}
