package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FallbackUsername derives the deterministic username of a provider account:
// the normalized email when valid, otherwise "hh_<externalID>".
func FallbackUsername(email, externalID string) string {
	if normalized := SanitizeEmail(email); ValidateEmail(normalized) {
		return normalized
	}
	return "hh_" + externalID
}
