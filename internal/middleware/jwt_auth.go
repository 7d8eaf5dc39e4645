package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/metrics"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
)

// UserContextKey is where the authenticated *models.JwtCustomClaims are stored
const UserContextKey = "user"

// JWTAuthMiddleware checks for a valid, unrevoked bearer token and stores its
// claims in the echo context.
func JWTAuthMiddleware(secret string, tokens repositories.TokenRepository) echo.MiddlewareFunc {
	reject := func(reason, msg string) error {
		metrics.AuthRejections.WithLabelValues(reason).Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject("missing_header", "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject("malformed_header", "Invalid Authorization header format")
			}

			claims, err := ParseToken(parts[1], secret)
			if err != nil {
				return reject("invalid_token", "Invalid token")
			}

			if claims.ID != "" && tokens != nil {
				revoked, err := tokens.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check token").SetInternal(err)
				}
				if revoked {
					return reject("revoked_token", "Token has been revoked")
				}
			}

			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// ParseToken validates an HS256 token signed with secret
func ParseToken(tokenString, secret string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
