package middleware

import (
	"strings"

	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// TokenValidator is the part of the JWT service the middleware needs.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

func Auth(validator TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.Unauthorized("invalid authorization header format")
			return
		}

		authenticate(c, validator, token)
	}
}

// StreamAuth is Auth for endpoints opened by browsers that cannot set
// headers (EventSource). A ?token= query parameter is accepted when the
// Authorization header is absent.
func StreamAuth(validator TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			token, ok := bearerToken(authHeader)
			if !ok {
				c.Unauthorized("invalid authorization header format")
				return
			}
			authenticate(c, validator, token)
			return
		}

		token := c.QueryParam("token")
		if token == "" {
			c.Unauthorized("missing token")
			return
		}
		authenticate(c, validator, token)
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *drift.Context, validator TokenValidator, token string) {
	claims, err := validator.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid or expired token")
		return
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)

	c.Next()
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
