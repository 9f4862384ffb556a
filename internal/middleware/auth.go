package middleware

import (
	"errors"
	"net/http"
	"strings"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	userKey  = "user"
	tokenKey = "auth_token"
)

// ParseAuthorization extracts the token key from an Authorization header.
// "Token <key>", "Bearer <key>" and a bare key are accepted.
func ParseAuthorization(header string) string {
	parts := strings.Fields(header)
	switch len(parts) {
	case 1:
		if isScheme(parts[0]) {
			return ""
		}
		return parts[0]
	case 2:
		if isScheme(parts[0]) {
			return parts[1]
		}
	}
	return ""
}

func isScheme(s string) bool {
	return strings.EqualFold(s, "Token") || strings.EqualFold(s, "Bearer")
}

// TokenAuth resolves the Authorization header to a user. Requests without
// the header, or with a scheme but no key, pass through anonymously; an
// unresolvable token is rejected.
func TokenAuth(db *gorm.DB, auth services.AuthService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || isScheme(header) {
			c.Next()
			return
		}

		user, token, err := auth.Authenticate(db.WithContext(c.Request.Context()), ParseAuthorization(header))
		if err != nil {
			var verr *services.ValidationError
			if errors.As(err, &verr) && errors.Is(err, services.ErrAuthenticationFailed) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   services.ErrAuthenticationFailed.Error(),
					"message": verr.Message,
				})
				return
			}

			logger.WithError(err).Error("token lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "An unexpected error occurred.",
			})
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   services.ErrAuthenticationFailed.Error(),
				"message": "Authentication credentials were not provided.",
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func CurrentToken(c *gin.Context) (*models.Token, bool) {
	v, exists := c.Get(tokenKey)
	if !exists {
		return nil, false
	}
	token, ok := v.(*models.Token)
	return token, ok && token != nil
}
