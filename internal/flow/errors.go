package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameters means the callback lacks code or state
	ErrMissingParameters = errors.New("missing code or state parameter")

	// ErrStateMismatch means the callback state does not match the stored one, which signals a possibly forged callback
	ErrStateMismatch = errors.New("state mismatch, possible CSRF attack")
)

// CallbackError is an error the provider reported on the redirect back
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}
