package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/middleware"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

// HandleListCards returns the caller's cards.
func (a *API) HandleListCards(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	cards, err := a.store.ListCards(c.Request.Context(), userID)
	if err != nil {
		logger.Get().Error("failed to list cards", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

type createCardRequest struct {
	CardName      string `json:"card_name" binding:"required"`
	Issuer        string `json:"issuer" binding:"required"`
	MaskedNumber  string `json:"masked_number"`
	PointsBalance int    `json:"points_balance"`
	Expiry        string `json:"expiry"`
	CardType      string `json:"card_type"`
	Color         string `json:"color"`
}

// HandleCreateCard adds a card to the caller's wallet.
func (a *API) HandleCreateCard(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PointsBalance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": gin.H{"points_balance": "must not be negative"},
		})
		return
	}

	card := &models.CreditCard{
		ID:            uuid.NewString(),
		UserID:        userID,
		CardName:      req.CardName,
		Issuer:        req.Issuer,
		MaskedNumber:  req.MaskedNumber,
		PointsBalance: req.PointsBalance,
		Expiry:        req.Expiry,
		CardType:      req.CardType,
		Color:         req.Color,
		CreatedAt:     time.Now(),
	}
	if err := a.store.CreateCard(c.Request.Context(), card); err != nil {
		logger.Get().Error("failed to create card", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, card)
}

// HandleDeleteCard removes one of the caller's cards. Cards belonging to
// other users are indistinguishable from missing ones.
func (a *API) HandleDeleteCard(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	cardID := c.Param("id")

	err := a.store.DeleteCard(c.Request.Context(), userID, cardID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	if err != nil {
		logger.Get().Error("failed to delete card", zap.String("card_id", cardID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "card deleted"})
}
