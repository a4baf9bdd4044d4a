package dto

import (
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
)

// TokenResponse is returned by the token exchange. ExpiresAt is epoch milliseconds.
type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	SessionToken string   `json:"sessionToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int      `json:"expiresIn"`
	User         UserInfo `json:"user"`
}

// UserInfo is the minimal user projection handed to the UI
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RefreshResponse reports a successful provider token refresh
type RefreshResponse struct {
	Success   bool  `json:"success"`
	ExpiresAt int64 `json:"expiresAt"`
}

// UserResponse represents a user response
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CreatedAt   string `json:"createdAt"`
	LastLoginAt string `json:"lastLoginAt"`
}

// NewUserResponse maps a user to its response
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		LastLoginAt: u.LastLoginAt.Format(time.RFC3339),
	}
}

// SearchVacanciesResponse is a page of vacancies after local keyword exclusion
type SearchVacanciesResponse struct {
	Items    []domain.Vacancy `json:"items"`
	Found    int              `json:"found"`
	Excluded int              `json:"excluded"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

// ApplyResponse represents a successful application
type ApplyResponse struct {
	Success     bool                      `json:"success"`
	Application *domain.ApplicationRecord `json:"application"`
	Location    string                    `json:"location,omitempty"`
	HHResponse  any                       `json:"hh_response,omitempty"`
}

// ApplyAllResponse is the tally of a bulk apply run
type ApplyAllResponse struct {
	Total    int            `json:"total"`
	Applied  int            `json:"applied"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Failures []ApplyFailure `json:"failures"`
	Stopped  string         `json:"stopped,omitempty"`
}

type ApplyFailure struct {
	VacancyID string `json:"vacancyId"`
	Name      string `json:"name"`
	Error     string `json:"error"`
}

// ApplicationsResponse is the local application history
type ApplicationsResponse struct {
	Applications []*domain.ApplicationRecord `json:"applications"`
	Stats        domain.ApplicationStats     `json:"stats"`
}

// ResumesResponse lists the user's resumes. Message explains an empty list.
type ResumesResponse struct {
	Items   []domain.Resume `json:"items"`
	Found   int             `json:"found"`
	Message string          `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Description   string `json:"description,omitempty"`
	RequireReauth bool   `json:"requireReauth,omitempty"`
	Details       any    `json:"details,omitempty"`
}
