package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddleware guards the admin API with a static key. The key may be
// configured in plain text or as a bcrypt hash.
type AdminMiddleware struct {
	apiKey  string
	keyHash []byte
}

// NewAdminMiddleware creates admin authentication middleware. Either
// argument may be empty; with both empty every request is rejected.
func NewAdminMiddleware(apiKey, apiKeyHash string) *AdminMiddleware {
	am := &AdminMiddleware{apiKey: apiKey}
	if apiKeyHash != "" {
		am.keyHash = []byte(apiKeyHash)
	}
	return am
}

// Enabled reports whether any admin key is configured.
func (am *AdminMiddleware) Enabled() bool {
	return am.apiKey != "" || len(am.keyHash) > 0
}

// RequireAdminAuth middleware validates admin API keys from the
// Authorization header, the X-API-Key header or the api_key query parameter.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates := []string{c.GetHeader("X-API-Key"), c.Query("api_key")}
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			candidates = append([]string{token}, candidates...)
		}

		for _, key := range candidates {
			if key != "" && am.ValidateAdminKey(key) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status": "error",
			"error":  "Valid admin API key required for this endpoint",
		})
	}
}

// ValidateAdminKey validates an admin API key
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if am.apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(am.apiKey)) == 1 {
		return true
	}
	if len(am.keyHash) > 0 && bcrypt.CompareHashAndPassword(am.keyHash, []byte(key)) == nil {
		return true
	}
	return false
}
