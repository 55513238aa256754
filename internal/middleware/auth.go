// Package middleware provides HTTP middleware components for authentication,
// authorization, telemetry, rate limiting and request logging.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT token claims.
type JWTClaims struct {
	// ClientID identifies the API client the token was issued to.
	ClientID string `json:"client_id"`
	// Scope is a space-separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(secretKey string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secretKey),
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status": "error",
		"error":  message,
	})
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively as per RFC 6750.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth middleware rejects requests without a valid Bearer token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := am.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, "Token expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ClientIDKey, claims.ClientID)
		c.Next()
	}
}

// OptionalAuth middleware validates JWT tokens but doesn't require them.
// If a valid token is present, the client ID is set on the context.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		if claims, err := am.ValidateToken(tokenString); err == nil {
			c.Set(ClientIDKey, claims.ClientID)
		}

		c.Next()
	}
}

// GenerateToken creates a signed HS256 token for clientID.
func (am *AuthMiddleware) GenerateToken(clientID, scope string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		ClientID: clientID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(am.secretKey)
}

// ValidateToken validates a JWT token and returns claims.
func (am *AuthMiddleware) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return am.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
