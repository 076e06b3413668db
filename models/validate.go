package models

import (
	"fmt"
	"strings"
)

// Credit score bounds, inclusive.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// FieldErrors maps field names to human-readable validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProfileInput is the raw multi-step form submission for a financial profile.
type ProfileInput struct {
	AnnualIncome       float64            `json:"annual_income"`
	CreditScore        int                `json:"credit_score"`
	MonthlySpending    map[string]float64 `json:"monthly_spending"`
	PrimaryCategories  []string           `json:"primary_spending_categories"`
	TravelFrequency    Frequency          `json:"travel_frequency"`
	DiningFrequency    Frequency          `json:"dining_frequency"`
	PreferredAirlines  []string           `json:"preferred_airlines"`
	OnlineShoppingPct  int                `json:"online_shopping_pct"`
	InStoreShoppingPct int                `json:"in_store_shopping_pct"`
	ExistingCards      []string           `json:"existing_cards"`
	PreferredBenefits  []string           `json:"preferred_benefits"`
}

// Validate checks numeric ranges and enum membership. A nil return means the
// input is acceptable.
func (in *ProfileInput) Validate() FieldErrors {
	errs := FieldErrors{}

	if in.CreditScore < MinCreditScore || in.CreditScore > MaxCreditScore {
		errs["credit_score"] = fmt.Sprintf("must be between %d and %d", MinCreditScore, MaxCreditScore)
	}
	if in.AnnualIncome < 0 {
		errs["annual_income"] = "must not be negative"
	}
	if !validFrequency(in.TravelFrequency) {
		errs["travel_frequency"] = "must be one of rarely, occasionally, frequently"
	}
	if !validFrequency(in.DiningFrequency) {
		errs["dining_frequency"] = "must be one of rarely, occasionally, frequently"
	}
	for category, amount := range in.MonthlySpending {
		if amount < 0 {
			errs["monthly_spending."+category] = "must not be negative"
		}
	}
	if in.OnlineShoppingPct != 0 || in.InStoreShoppingPct != 0 {
		if in.OnlineShoppingPct+in.InStoreShoppingPct != 100 {
			errs["online_shopping_pct"] = "online and in-store percentages must sum to 100"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validFrequency(f Frequency) bool {
	switch f {
	case FrequencyRarely, FrequencyOccasionally, FrequencyFrequently:
		return true
	}
	return false
}
