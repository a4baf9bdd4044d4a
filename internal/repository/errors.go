package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUser is returned when a user with the same username or external id already exists
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicateApplication is returned when the user already has an application for the vacancy
	ErrDuplicateApplication = errors.New("application for this vacancy already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
