package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are the claims carried by the external identity provider's
// tokens.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}
