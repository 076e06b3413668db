package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/middleware"
	"cardsavvy/api/models"
	"cardsavvy/api/recommend"
	"cardsavvy/api/storage"
	"cardsavvy/api/vector"
)

// HandleGetRecommendations returns the caller's stored recommendation set,
// generating one first if none exists yet. Requires a financial profile.
func (a *API) HandleGetRecommendations(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	profile, err := a.store.GetFinancialProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "financial profile required"})
		return
	}
	if err != nil {
		logger.Get().Error("failed to load profile for recommendations", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	recs, err := a.store.GetRecommendations(ctx, userID)
	if err == nil && len(recs) > 0 {
		c.JSON(http.StatusOK, recs)
		return
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Get().Error("failed to load stored recommendations", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	recs, err = a.generateAndStore(ctx, userID, profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// HandleRegenerateRecommendations re-runs the pipeline and replaces the
// stored set.
func (a *API) HandleRegenerateRecommendations(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	profile, err := a.store.GetFinancialProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "financial profile required"})
		return
	}
	if err != nil {
		logger.Get().Error("failed to load profile for regeneration", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	recs, err := a.generateAndStore(ctx, userID, profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (a *API) generateAndStore(ctx context.Context, userID string, profile *models.FinancialProfile) ([]models.CardRecommendation, error) {
	recs, err := a.pipeline.Generate(ctx, profile)
	if err != nil {
		logger.Get().Error("recommendation pipeline failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(recs) == 0 {
		// Empty candidate list, typically a vector-store outage. Serve the
		// builtin corpus rather than an empty page.
		logger.Get().Warn("pipeline returned no candidates, serving static fallback", zap.String("user_id", userID))
		recs = recommend.StaticFallback(vector.BuiltinCards(), a.cfg.RecommendationLimit)
	}

	if err := a.store.SaveRecommendations(ctx, userID, recs); err != nil {
		logger.Get().Error("failed to save recommendations", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return recs, nil
}
