package models

import "time"

// MembershipTier buckets users for perks display.
type MembershipTier string

const (
	TierStandard MembershipTier = "standard"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

// User is an account holder. PasswordHash is empty for users that only ever
// authenticated through the external identity provider.
type User struct {
	ID           string         `json:"id" bson:"_id"`
	Username     string         `json:"username" bson:"username"`
	Email        string         `json:"email" bson:"email"`
	Name         string         `json:"name" bson:"name"`
	AuthSubject  string         `json:"auth_subject,omitempty" bson:"auth_subject,omitempty"`
	Tier         MembershipTier `json:"tier" bson:"tier"`
	PasswordHash string         `json:"-" bson:"password_hash"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}
