package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/dto"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
)

// errorResponse maps a service error to its HTTP status and body
func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		authErr    *hh.ProviderAuthError
		profileErr *service.ProfileFetchError
		apiErr     *hh.APIError
		appliedErr *service.AlreadyAppliedError
	)

	switch {
	case errors.As(err, &profileErr):
		return http.StatusBadGateway, dto.ErrorResponse{
			Error:       "profile_fetch_failed",
			Description: err.Error(),
		}
	case errors.Is(err, service.ErrNoValidToken), errors.Is(err, hh.ErrRequireReauth):
		return http.StatusUnauthorized, dto.ErrorResponse{
			Error:         "require_reauth",
			Description:   err.Error(),
			RequireReauth: true,
		}
	case errors.As(err, &authErr):
		return statusOr(authErr.Status, http.StatusBadGateway), dto.ErrorResponse{
			Error:       authErr.Code,
			Description: authErr.Description,
		}
	case errors.As(err, &appliedErr):
		return http.StatusConflict, dto.ErrorResponse{
			Error:       "already_applied",
			Description: err.Error(),
			Details:     appliedErr.Application,
		}
	case errors.As(err, &apiErr):
		return statusOr(apiErr.Status, http.StatusBadGateway), dto.ErrorResponse{
			Error:       "provider_error",
			Description: apiErr.Error(),
			Details:     apiErr.Details,
		}
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized, dto.ErrorResponse{
			Error:       "unauthorized",
			Description: "Invalid or expired session",
		}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{
			Error:       "not_found",
			Description: err.Error(),
		}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{
			Error:       "internal_error",
			Description: "Internal server error",
		}
	}
}

func statusOr(status, fallback int) int {
	if status < 400 || status > 599 {
		return fallback
	}
	return status
}

// writeError aborts the request with the mapped error body
func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func writeValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:       "validation_failed",
		Description: err.Error(),
	})
}
