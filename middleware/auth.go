// Package middleware holds the gin middleware: the session/auth gate and CORS.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cardsavvy/api/config"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

const (
	principalKey = "principal"

	// SessionUserKey is the session entry carrying the authenticated user id.
	SessionUserKey = "user_id"

	// HeaderUserID is the unverified identity header accepted when the
	// fallback is enabled. Any caller able to set a header can impersonate
	// any user through it; acceptable for a prototype only.
	HeaderUserID = "X-User-Id"
)

// Auth resolves an authenticated principal for the request or rejects it
// with 401. Accepted, in order: an existing session, a provider bearer
// token, and (when enabled) the trusted identity header, which is promoted
// into the session for subsequent requests.
func Auth(store storage.Storage, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		if userID, ok := session.Get(SessionUserKey).(string); ok && userID != "" {
			c.Set(principalKey, userID)
			c.Next()
			return
		}

		if token := extractBearer(c.Request); token != "" {
			claims, err := ParseIdentityToken(token, cfg.AuthJWTSecret, cfg.AuthIssuer)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				c.Abort()
				return
			}
			user, err := store.GetUserByAuthSubject(c.Request.Context(), claims.Subject)
			if err != nil {
				// A valid token for an unsynced identity: the client must call
				// /api/auth/sync first.
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				c.Abort()
				return
			}
			c.Set(principalKey, user.ID)
			c.Next()
			return
		}

		if cfg.HeaderFallback {
			if userID := c.GetHeader(HeaderUserID); userID != "" {
				session.Set(SessionUserKey, userID)
				_ = session.Save()
				c.Set(principalKey, userID)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		c.Abort()
	}
}

// CurrentUserID returns the authenticated principal set by Auth.
func CurrentUserID(c *gin.Context) (string, bool) {
	userID, ok := c.Get(principalKey)
	if !ok {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// ParseIdentityToken verifies an identity-provider JWT (HS256) and its issuer.
func ParseIdentityToken(tokenString, secret, issuer string) (*models.IdentityClaims, error) {
	if secret == "" {
		return nil, errors.New("identity token verification is not configured")
	}

	claims := &models.IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return nil, errors.New("invalid token issuer")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
