package challenge

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by the server and the client. Callers match with errors.Is.
var (
	ErrUnauthenticated = errors.New("please log in")
	ErrForbidden       = errors.New("not allowed for this user")
	ErrConflict        = errors.New("challenge status does not allow this action")
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrNetwork         = errors.New("network error")
)

// HTTPStatus maps an error from the taxonomy to its HTTP status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorForStatus maps an HTTP status code back to the taxonomy. It returns nil
// for codes that have no dedicated error kind.
func ErrorForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	}
	return nil
}
