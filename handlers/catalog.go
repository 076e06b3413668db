package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
)

// HandleListFlights serves the flight catalog.
func (a *API) HandleListFlights(c *gin.Context) {
	flights, err := a.store.ListFlights(c.Request.Context())
	if err != nil {
		logger.Get().Error("failed to list flights", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, flights)
}

// HandleListHotels serves the hotel catalog.
func (a *API) HandleListHotels(c *gin.Context) {
	hotels, err := a.store.ListHotels(c.Request.Context())
	if err != nil {
		logger.Get().Error("failed to list hotels", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, hotels)
}

// HandleListShoppingOffers serves the shopping-offer catalog.
func (a *API) HandleListShoppingOffers(c *gin.Context) {
	offers, err := a.store.ListShoppingOffers(c.Request.Context())
	if err != nil {
		logger.Get().Error("failed to list shopping offers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, offers)
}
