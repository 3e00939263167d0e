package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows cross-origin requests from clientURL. An empty
// clientURL allows every origin, without credentials.
func CORSMiddleware(clientURL string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Firebase-Token", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	// Browsers reject a wildcard origin combined with credentials, so
	// credentials are only allowed for a named origin.
	if clientURL == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{clientURL}
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
