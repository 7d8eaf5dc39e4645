package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandler renders every error as {"message": "..."}
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := &echo.HTTPError{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError)}
		if !errors.As(err, &he) {
			he = toHTTPError(err).(*echo.HTTPError)
		}

		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
		default:
			msg = fmt.Sprint(m)
		}

		if he.Code >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, map[string]string{"message": msg})
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
