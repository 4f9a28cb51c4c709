package middleware

import (
	"context"
	"net/http"
	"strings"

	"dreambid/internal/auth"
	"dreambid/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const (
	// ContextKeyUser holds the authenticated *models.User in Gin context.
	ContextKeyUser = "user"
)

// UserLookup loads the account behind a token
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware requires a valid bearer token for an active account.
func AuthMiddleware(jwtSecret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided, authorization denied"})
			return
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User account is inactive"})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(jwtSecret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if ok {
			if claims, err := auth.ValidateJWT(tokenString, jwtSecret); err == nil {
				if user, err := users.GetUser(c.Request.Context(), claims.UserID); err == nil && user.IsActive {
					c.Set(ContextKeyUser, user)
				}
			}
		}
		c.Next()
	}
}

// RequireRoles allows only users holding one of roles. Assumes AuthMiddleware runs first.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !lo.Contains(roles, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID returns the authenticated user's id or nil for anonymous requests
func CurrentUserID(c *gin.Context) *uint {
	user, ok := CurrentUser(c)
	if !ok {
		return nil
	}
	id := user.ID
	return &id
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
