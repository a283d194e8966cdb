package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks responses that cleared the session token. The client
// has already run the auth-failure hook by the time callers see it.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error carries a non-2xx response with its body intact.
type Error struct {
	Status   int
	Envelope *Envelope
}

func (e *Error) Error() string {
	if msg := e.Envelope.Message(); msg != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// FieldErrors exposes per-field validation messages when present.
func (e *Error) FieldErrors() FieldErrors {
	if e == nil {
		return nil
	}
	return e.Envelope.FieldErrors()
}

// ValidationErrors extracts field errors from a failed call, reporting
// whether err was a validation failure.
func ValidationErrors(err error) (FieldErrors, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	errs := apiErr.FieldErrors()
	return errs, len(errs) > 0
}
