package dto

import "github.com/prperemyshlev/hh-autoapply/internal/domain"

// TokenExchangeRequest carries the authorization code returned by the provider redirect
type TokenExchangeRequest struct {
	Code string `json:"code" binding:"required"`
}

// SearchVacanciesRequest represents a vacancy search request
type SearchVacanciesRequest struct {
	Filter domain.SearchFilter `json:"filter"`
}

// ApplyRequest represents a single application request. Message is accepted as an alias of CoverLetter.
type ApplyRequest struct {
	VacancyID   string `json:"vacancyId" binding:"required"`
	ResumeID    string `json:"resumeId" binding:"required"`
	CoverLetter string `json:"coverLetter"`
	Message     string `json:"message"`
}

// ApplyAllRequest starts a bulk apply over the filter's search results
type ApplyAllRequest struct {
	Filter      domain.SearchFilter `json:"filter"`
	ResumeID    string              `json:"resumeId" binding:"required"`
	CoverLetter string              `json:"coverLetter"`
}
