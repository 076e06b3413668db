package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/middleware"
	"cardsavvy/api/models"
	"cardsavvy/api/storage"
)

// HandleGetProfile returns the caller's financial profile.
func (a *API) HandleGetProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	profile, err := a.store.GetFinancialProfile(c.Request.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "financial profile not found"})
		return
	}
	if err != nil {
		logger.Get().Error("failed to load financial profile", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleSubmitProfile validates and upserts the caller's financial profile.
// Spending categories the user has ever touched are kept in the map and
// zero-filled when deselected.
func (a *API) HandleSubmitProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var in models.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fieldErrs := in.Validate(); fieldErrs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
		return
	}

	var existingSpending map[string]float64
	existing, err := a.store.GetFinancialProfile(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Get().Error("failed to load existing profile", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if existing != nil {
		existingSpending = existing.MonthlySpending
	}

	profile := &models.FinancialProfile{
		UserID:             userID,
		AnnualIncome:       in.AnnualIncome,
		CreditScore:        in.CreditScore,
		MonthlySpending:    models.MergeSpending(existingSpending, in.MonthlySpending),
		PrimaryCategories:  in.PrimaryCategories,
		TravelFrequency:    in.TravelFrequency,
		DiningFrequency:    in.DiningFrequency,
		PreferredAirlines:  in.PreferredAirlines,
		OnlineShoppingPct:  in.OnlineShoppingPct,
		InStoreShoppingPct: in.InStoreShoppingPct,
		ExistingCards:      in.ExistingCards,
		PreferredBenefits:  in.PreferredBenefits,
		UpdatedAt:          time.Now(),
	}

	if err := a.store.UpsertFinancialProfile(c.Request.Context(), profile); err != nil {
		logger.Get().Error("failed to upsert financial profile", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
