package models

import "time"

// CreditCard belongs to exactly one user and is never shared.
type CreditCard struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	CardName      string    `json:"card_name" bson:"card_name"`
	Issuer        string    `json:"issuer" bson:"issuer"`
	MaskedNumber  string    `json:"masked_number" bson:"masked_number"`
	PointsBalance int       `json:"points_balance" bson:"points_balance"`
	Expiry        string    `json:"expiry" bson:"expiry"`
	CardType      string    `json:"card_type" bson:"card_type"`
	Color         string    `json:"color" bson:"color"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// CardDocument is an indexed card with its issuer disclosure text, the unit
// of retrieval for the recommendation pipeline.
type CardDocument struct {
	ID          string `json:"id"`
	CardName    string `json:"card_name"`
	Issuer      string `json:"issuer"`
	CardType    string `json:"card_type"`
	AnnualFee   string `json:"annual_fee"`
	MITCContent string `json:"mitc_content"`
}

// CardRecommendation is the scored output of the recommendation pipeline.
// MatchScore is a model-assigned heuristic in [0,100], not a deterministic
// computed metric.
type CardRecommendation struct {
	CardName    string    `json:"card_name" bson:"card_name"`
	Issuer      string    `json:"issuer" bson:"issuer"`
	CardType    string    `json:"card_type" bson:"card_type"`
	MatchScore  int       `json:"match_score" bson:"match_score"`
	MatchReason string    `json:"match_reason" bson:"match_reason"`
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
}
