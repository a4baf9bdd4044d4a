package hh

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRequireReauth means the provider no longer accepts the user's credentials and a new login is needed
var ErrRequireReauth = errors.New("re-authentication required")

// ProviderAuthError is a rejection from the provider's token endpoint
type ProviderAuthError struct {
	Status      int
	Code        string
	Description string
}

func (e *ProviderAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("provider token endpoint returned %d: %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("provider token endpoint returned %d: %s", e.Status, e.Code)
}

// RefreshTokenRejected reports whether the refresh token itself is dead
func (e *ProviderAuthError) RefreshTokenRejected() bool {
	return e.Code == "invalid_grant" || e.Code == "invalid_request"
}

// APIError is a non-success response from the provider's resource API
type APIError struct {
	Operation   string
	Status      int
	Description string
	Details     any
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: provider returned %d: %s", e.Operation, e.Status, e.Description)
	}
	return fmt.Sprintf("%s: provider returned %d", e.Operation, e.Status)
}

// Is makes a provider 401 match ErrRequireReauth
func (e *APIError) Is(target error) bool {
	return target == ErrRequireReauth && e.Status == http.StatusUnauthorized
}

type apiErrorBody struct {
	Description string `json:"description"`
	Errors      []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"errors"`
}

// newAPIError decodes the provider error body. Details carries the parsed JSON, or the raw text when it is not JSON.
func newAPIError(operation string, status int, body []byte) *APIError {
	apiErr := &APIError{Operation: operation, Status: status}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return apiErr
	}

	var details any
	if err := json.Unmarshal(body, &details); err != nil {
		apiErr.Details = map[string]string{"raw": trimmed}
		return apiErr
	}
	apiErr.Details = details

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Description = parsed.Description
		if apiErr.Description == "" && len(parsed.Errors) > 0 {
			values := make([]string, 0, len(parsed.Errors))
			for _, e := range parsed.Errors {
				if e.Value != "" {
					values = append(values, e.Type+": "+e.Value)
				} else {
					values = append(values, e.Type)
				}
			}
			apiErr.Description = strings.Join(values, ", ")
		}
	}

	return apiErr
}
