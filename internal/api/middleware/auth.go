package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
)

// Auth enforces the optional API bearer token. The configured value is a
// bcrypt hash, so the accepted token never sits in the environment in
// clear. Disabled or unconfigured auth passes everything through.
//
// WebSocket clients cannot set headers from a browser, so a token query
// parameter is accepted as a fallback.
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.TokenHash == "" {
		return func(c *gin.Context) { c.Next() }
	}
	hash := []byte(cfg.TokenHash)

	return func(c *gin.Context) {
		// Liveness probes do not carry tokens.
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
