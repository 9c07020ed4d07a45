// Package errs contains sentinel errors and the API error type used across layers
// for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Local precondition sentinels. These are raised before any network call.
var (
	// ErrUnauthorized indicates a protected action was attempted without a
	// token or user identity in the session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyReserved indicates a reserve on a concert the user already
	// holds a confirmed reservation for.
	ErrAlreadyReserved = errors.New("already reserved")

	// ErrReservationCancelled indicates an action on a reservation in the
	// terminal cancelled state (strict mode).
	ErrReservationCancelled = errors.New("reservation cancelled")

	// ErrActionInFlight indicates a second submission for a concert whose
	// previous action has not settled yet.
	ErrActionInFlight = errors.New("action already in flight")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response carrying the server-supplied message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// AsAPIError unwraps err into *APIError, or nil when it is not one.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// UserMessage extracts the text suitable for a transient notice: the server
// message for API errors, the plain error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr := AsAPIError(err); apiErr != nil {
		return apiErr.Message
	}
	return err.Error()
}
