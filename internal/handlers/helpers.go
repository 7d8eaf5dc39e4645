package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/middleware"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/pkg/challenge"
)

// getClaims returns the claims stored by the JWT middleware, or nil
func getClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(middleware.UserContextKey).(*models.JwtCustomClaims)
	return claims
}

// getUserIDFromContext returns the authenticated user id, or 0
func getUserIDFromContext(c echo.Context) uint {
	if claims := getClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

func requireUserID(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// toHTTPError maps a domain error onto its HTTP status. Internal errors keep
// their detail out of the response body.
func toHTTPError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var unknown *challenge.UnknownStateError
	if errors.As(err, &unknown) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Challenge is in an unknown state").SetInternal(err)
	}

	code := challenge.HTTPStatus(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "Internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

// bindAndValidate decodes the body into req and runs the registered validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func pageParams(c echo.Context, defaultSize, maxSize int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size == 0 {
		size, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxSize {
		size = defaultSize
	}
	return page, size
}
