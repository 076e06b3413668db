package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardsavvy/api/auth"
	"cardsavvy/api/logger"
	"cardsavvy/api/middleware"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
}

// HandleRegister creates a user with a locally hashed password and opens a
// session.
func (a *API) HandleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := a.store.GetUserByUsername(c.Request.Context(), req.Username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		logger.Get().Error("failed to check username", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Get().Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Tier:         models.TierStandard,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := a.store.CreateUser(c.Request.Context(), user); err != nil {
		logger.Get().Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	a.openSession(c, user.ID)
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin verifies credentials and opens a session. The 401 message is
// identical whether the username or the password was wrong.
func (a *API) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Get().Error("failed to load user for login", zap.Error(err))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	a.openSession(c, user.ID)
	c.JSON(http.StatusOK, user)
}

// HandleLogout clears the session.
func (a *API) HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Get().Error("failed to clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// HandleMe returns the authenticated user.
func (a *API) HandleMe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := a.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Get().Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleSync upserts a user record from an externally verified identity and
// opens a session for it. The bearer token must come from the configured
// identity provider.
func (a *API) HandleSync(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	claims, err := middleware.ParseIdentityToken(token, a.cfg.AuthJWTSecret, a.cfg.AuthIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	user, err := a.store.GetUserByAuthSubject(c.Request.Context(), claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		user = &models.User{
			ID:          uuid.NewString(),
			Username:    usernameFromClaims(claims),
			Email:       claims.Email,
			Name:        claims.Name,
			AuthSubject: claims.Subject,
			Tier:        models.TierStandard,
			CreatedAt:   time.Now(),
		}
		if err := a.store.CreateUser(c.Request.Context(), user); err != nil {
			logger.Get().Error("failed to create synced user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		logger.Get().Info("synced new user from identity provider",
			zap.String("subject", claims.Subject))
	} else if err != nil {
		logger.Get().Error("failed to look up synced user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	a.openSession(c, user.ID)
	c.JSON(http.StatusOK, user)
}

func (a *API) openSession(c *gin.Context, userID string) {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, userID)
	if err := session.Save(); err != nil {
		logger.Get().Error("failed to save session", zap.Error(err))
	}
}

func usernameFromClaims(claims *models.IdentityClaims) string {
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
