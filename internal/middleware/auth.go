package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/service-marketplace/internal/config"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
)

const (
	ContextIdentity = "identity"
)

const (
	RoleUser          = "user"
	RoleProvider      = "provider"
	RoleBusinessOwner = "business_owner"
	RoleEventManager  = "event_manager"
	RoleAdmin         = "admin"
)

// AuthMiddleware validates the bearer access token issued by the auth service
// and stores the caller identity on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing_authorization_header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid_authorization_header"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid_token"})
			return
		}

		id, ok := identityFromClaims(claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid_token_payload"})
			return
		}

		c.Set(ContextIdentity, id)
		c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) (lifecycle.Identity, bool) {
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return lifecycle.Identity{}, false
	}

	id := lifecycle.Identity{Role: role}
	switch role {
	case RoleUser:
		id.UserID = sub
	case RoleProvider, RoleBusinessOwner, RoleEventManager:
		id.OwnerID = sub
		if owner, _ := claims["ownerId"].(string); owner != "" {
			id.OwnerID = owner
		}
	case RoleAdmin:
	default:
		return lifecycle.Identity{}, false
	}
	return id, true
}

// RequireRole rejects callers whose token role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := IdentityFrom(c)
		if !slices.Contains(roles, id.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "forbidden"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) lifecycle.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return lifecycle.Identity{}
	}
	id, _ := v.(lifecycle.Identity)
	return id
}
