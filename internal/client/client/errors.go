package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrServer          = errors.New("server error")
	ErrPaymentDeclined = errors.New("payment declined")
)

const codePaymentDeclined = "payment_declined"

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	var errs []error
	switch {
	case e.Status == http.StatusBadRequest:
		errs = append(errs, ErrValidation)
	case e.Status == http.StatusUnauthorized:
		errs = append(errs, ErrUnauthorized)
	case e.Status == http.StatusForbidden:
		errs = append(errs, ErrForbidden)
	case e.Status == http.StatusConflict:
		errs = append(errs, ErrConflict)
	case e.Status >= http.StatusInternalServerError:
		errs = append(errs, ErrServer)
	}
	if e.Code == codePaymentDeclined {
		errs = append(errs, ErrPaymentDeclined)
	}
	return errs
}

// IsAuthError reports whether err means the session is no longer usable.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
