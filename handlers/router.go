package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"cardsavvy/api/middleware"
)

// Router builds the gin engine with all routes mounted.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Cors(a.cfg.CORSOrigins))

	store := cookie.NewStore([]byte(a.cfg.SessionSecret))
	r.Use(sessions.Sessions("cardsavvy_session", store))

	api := r.Group("/api")
	{
		api.GET("/health", a.HandleHealth)
		api.GET("/metrics", a.pool.MetricsHandler)

		api.POST("/auth/register", a.HandleRegister)
		api.POST("/auth/login", a.HandleLogin)
		api.POST("/auth/sync", a.HandleSync)

		// Browse catalogs are public; booking-style actions are not exposed.
		api.GET("/flights", a.HandleListFlights)
		api.GET("/hotels", a.HandleListHotels)
		api.GET("/shopping-offers", a.HandleListShoppingOffers)
		api.GET("/shopping", a.HandleListShoppingOffers)
	}

	authed := api.Group("")
	authed.Use(middleware.Auth(a.store, a.cfg))
	{
		authed.GET("/auth/me", a.HandleMe)
		authed.POST("/auth/logout", a.HandleLogout)

		authed.GET("/cards", a.HandleListCards)
		authed.POST("/cards", a.HandleCreateCard)
		authed.DELETE("/cards/:id", a.HandleDeleteCard)

		authed.GET("/financial-profile", a.HandleGetProfile)
		authed.POST("/financial-profile", a.HandleSubmitProfile)

		authed.GET("/recommendations", a.HandleGetRecommendations)
		authed.POST("/recommendations/regenerate", a.HandleRegenerateRecommendations)

		authed.GET("/chat", a.HandleGetChat)
		authed.POST("/chat", a.HandleSendChat)
		authed.DELETE("/chat", a.HandleClearChat)
		authed.GET("/chat/stream", a.HandleChatStream)
		authed.GET("/chat/title", a.HandleChatTitle)
	}

	return r
}
