package service

import (
	"errors"
	"fmt"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
)

var (
	// ErrNoValidToken is returned when the user has no usable provider token and must log in again
	ErrNoValidToken = errors.New("no valid token found, please re-authenticate with hh.ru")

	// ErrAlreadyApplied matches AlreadyAppliedError
	ErrAlreadyApplied = errors.New("already applied to this vacancy")

	// ErrDailyLimitReached is returned when the daily application cap is used up
	ErrDailyLimitReached = errors.New("daily application limit reached")

	// ErrInvalidSession is returned for missing, malformed, expired or revoked session tokens
	ErrInvalidSession = errors.New("invalid or expired session")
)

// ProfileFetchError means the token exchange succeeded but the profile request did not
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("failed to fetch user profile: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}

// AlreadyAppliedError carries the existing application for the vacancy
type AlreadyAppliedError struct {
	Application *domain.ApplicationRecord
}

func (e *AlreadyAppliedError) Error() string {
	return fmt.Sprintf("already applied to vacancy %s", e.Application.VacancyID)
}

func (e *AlreadyAppliedError) Is(target error) bool {
	return target == ErrAlreadyApplied
}
