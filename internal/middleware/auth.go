package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// Context keys set by Authenticate.
const (
	ContextUserKey  = "currentUser"
	ContextActorKey = "actor"
)

// APIKeyHeader carries the shared write key.
const APIKeyHeader = "X-API-Key"

const apiKeyActor = "api-key"

type credentialValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	ValidateAPIKey(key string) bool
}

// Authenticate records who is calling. A valid X-API-Key or Bearer token sets
// the actor; missing or invalid credentials are left for RequireRoles to judge.
func Authenticate(auth credentialValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.Next()
			return
		}
		if key := c.GetHeader(APIKeyHeader); key != "" && auth.ValidateAPIKey(key) {
			c.Set(ContextActorKey, apiKeyActor)
			c.Next()
			return
		}
		if token, ok := bearer(c.GetHeader("Authorization")); ok {
			if claims, err := auth.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
				c.Set(ContextActorKey, claims.Username)
			}
		}
		c.Next()
	}
}

// RequireRoles blocks callers that are neither holding the write key nor a
// token with one of roles. When enabled is false every caller passes.
func RequireRoles(enabled bool, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		if Actor(c) == apiKeyActor {
			c.Next()
			return
		}
		claims := Claims(c)
		if claims == nil {
			response.Fail(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Fail(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// Claims returns the validated token claims, if any.
func Claims(c *gin.Context) *models.JWTClaims {
	if v, ok := c.Get(ContextUserKey); ok {
		if claims, ok := v.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}

// Actor names the authenticated caller, or "" for anonymous requests.
func Actor(c *gin.Context) string {
	return c.GetString(ContextActorKey)
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
