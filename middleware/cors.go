package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Cors builds the CORS middleware from the configured comma-separated origin
// list. Credentials are allowed because auth rides on session cookies.
func Cors(allowedOrigins string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", HeaderUserID},
		AllowCredentials: true,
	}
	return cors.New(cfg)
}
