package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/config"
	"github.com/prperemyshlev/hh-autoapply/internal/dto"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles the JSON authentication endpoints
type AuthHandler struct {
	authService service.AuthService
	tokens      service.TokenStore
	sessions    service.SessionService
	cookies     config.SessionConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService service.AuthService,
	tokens service.TokenStore,
	sessions service.SessionService,
	cookies config.SessionConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		sessions:    sessions,
		cookies:     cookies,
		logger:      logger,
	}
}

// Token exchanges an authorization code for provider tokens and a service session
// @Summary Exchange authorization code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.TokenExchangeRequest true "Authorization code"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := h.authService.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	sessionToken, _, err := h.sessions.Issue(c.Request.Context(), result.User.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	ttl := int(h.sessions.TTL().Seconds())
	setSessionCookie(c, sessionToken, ttl, h.cookies.Secure)

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt.UnixMilli(),
		SessionToken: sessionToken,
		TokenType:    "Bearer",
		ExpiresIn:    ttl,
		User: dto.UserInfo{
			ID:        result.User.ID,
			Email:     result.User.Email,
			FirstName: result.User.FirstName,
			LastName:  result.User.LastName,
		},
	})
}

// Refresh renews the stored provider token pair of the current user
// @Summary Refresh provider tokens
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.RefreshResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	record, err := h.tokens.RefreshToken(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{
		Success:   true,
		ExpiresAt: record.ExpiresAtMillis(),
	})
}

// Logout drops the provider tokens and revokes the session
// @Summary Logout user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.tokens.DeleteToken(ctx, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	if claims := currentSession(c); claims != nil {
		if err := h.sessions.Revoke(ctx, claims); err != nil {
			writeError(c, err)
			return
		}
	}

	setSessionCookie(c, "", -1, h.cookies.Secure)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// GetMe returns the current local user
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", secure, true)
}
