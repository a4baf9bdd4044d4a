package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"github.com/prperemyshlev/hh-autoapply/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponse(t *testing.T) {
	existing := &domain.ApplicationRecord{ID: "a1", VacancyID: "v1"}

	tests := []struct {
		name          string
		err           error
		status        int
		code          string
		requireReauth bool
	}{
		{"provider auth error", &hh.ProviderAuthError{Status: 400, Code: "invalid_grant"}, 400, "invalid_grant", false},
		{"provider transport error", &hh.ProviderAuthError{Code: "server_error"}, 502, "server_error", false},
		{"profile fetch", &service.ProfileFetchError{Err: errors.New("boom")}, 502, "profile_fetch_failed", false},
		{"no valid token", service.ErrNoValidToken, 401, "require_reauth", true},
		{"rejected refresh", fmt.Errorf("%w: %w", service.ErrNoValidToken, &hh.ProviderAuthError{Status: 400, Code: "invalid_grant"}), 401, "require_reauth", true},
		{"provider 401", &hh.APIError{Operation: "search", Status: 401}, 401, "require_reauth", true},
		{"provider 403", &hh.APIError{Operation: "apply", Status: 403}, 403, "provider_error", false},
		{"already applied", &service.AlreadyAppliedError{Application: existing}, 409, "already_applied", false},
		{"invalid session", service.ErrInvalidSession, 401, "unauthorized", false},
		{"not found", fmt.Errorf("failed to get user: %w", repository.ErrNotFound), 404, "not_found", false},
		{"unknown", errors.New("db down"), 500, "internal_error", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := errorResponse(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Error)
			assert.Equal(t, tc.requireReauth, body.RequireReauth)
		})
	}
}

func TestErrorResponseHidesInternalErrors(t *testing.T) {
	_, body := errorResponse(errors.New("pq: password authentication failed"))
	assert.NotContains(t, body.Description, "pq")
}

func TestErrorResponseAlreadyAppliedDetails(t *testing.T) {
	existing := &domain.ApplicationRecord{ID: "a1", VacancyID: "v1"}
	_, body := errorResponse(&service.AlreadyAppliedError{Application: existing})
	assert.Equal(t, existing, body.Details)
}

func TestSessionToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"cookie", "", "from-cookie", "from-cookie"},
		{"header wins", "Bearer abc", "from-cookie", "abc"},
		{"wrong scheme", "Basic abc", "from-cookie", ""},
		{"none", "", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.cookie})
			}

			assert.Equal(t, tc.want, sessionToken(c))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &testutil.Limiter{RetryAfter: 1500 * time.Millisecond}
	router := gin.New()
	router.GET("/limited", RateLimitMiddleware(limiter, 1, time.Minute, ClientIPKey, zaptest.NewLogger(t)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	limiter := &testutil.Limiter{Err: errors.New("redis down")}
	router := gin.New()
	router.GET("/limited", RateLimitMiddleware(limiter, 1, time.Minute, ClientIPKey, zaptest.NewLogger(t)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCallbackErrorCode(t *testing.T) {
	assert.Equal(t, "invalid_grant", callbackErrorCode(&hh.ProviderAuthError{Status: 400, Code: "invalid_grant"}))
	assert.Equal(t, "profile_fetch_failed", callbackErrorCode(&service.ProfileFetchError{Err: errors.New("x")}))
	assert.Equal(t, "server_error", callbackErrorCode(errors.New("x")))
}
