package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/mock-interview/errors"
	"github.com/johnquangdev/mock-interview/pkg/jwt"
)

const (
	// OwnerKey is the echo context key holding the authenticated owner email
	OwnerKey = "owner"
	// ClaimsKey is the echo context key holding the parsed token claims
	ClaimsKey = "claims"
)

// TokenValidator parses an access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the JWT and sets
// "owner" (string) and "claims" (*jwt.Claims) into the Echo context
func EchoAuth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return apperrors.ErrUnauthenticated()
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apperrors.ErrTokenExpired()
				}
				return apperrors.ErrInvalidToken()
			}

			c.Set(ClaimsKey, claims)
			c.Set(OwnerKey, claims.Email)

			return next(c)
		}
	}
}

// GetOwner returns the authenticated owner email
func GetOwner(c echo.Context) (string, bool) {
	owner, ok := c.Get(OwnerKey).(string)
	return owner, ok && owner != ""
}

func extractToken(c echo.Context) string {
	// Expected format: "Bearer <token>"
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
