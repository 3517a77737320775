package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/userauth-api/internal/domain"
	ctxlog "github.com/ErlanBelekov/userauth-api/internal/log"
	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie is set by the login handler and accepted in place of
	// the Authorization header.
	AccessTokenCookie = "accessToken"

	userKey = "user"

	errUnauthorized = "Unauthorized request"
	errTokenExpired = "Token has expired"
	errInternal     = "Internal server error"
)

// Authenticator is implemented by usecase.AuthUsecase.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
}

// Auth resolves the bearer token (header first, then cookie) to a user and
// stores it in the gin context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), raw)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errTokenExpired})
			return
		case errors.Is(err, domain.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errInternal})
			return
		}

		c.Set(userKey, user)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}
