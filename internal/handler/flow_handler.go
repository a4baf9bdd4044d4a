package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prperemyshlev/hh-autoapply/internal/config"
	"github.com/prperemyshlev/hh-autoapply/internal/flow"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"go.uber.org/zap"
)

// BrowserCookie identifies the browser's client storage area across the login redirect
const BrowserCookie = "hh_sid"

// StorageFactory returns the client storage of one browser session
type StorageFactory func(browserID string) flow.Storage

// FlowHandler serves the redirect based login
type FlowHandler struct {
	storage    StorageFactory
	exchanger  flow.Exchanger
	authorizer flow.Authorizer
	sessions   service.SessionService
	session    config.SessionConfig
	app        config.AppConfig
	logger     *zap.Logger
}

func NewFlowHandler(
	storage StorageFactory,
	exchanger flow.Exchanger,
	authorizer flow.Authorizer,
	sessions service.SessionService,
	session config.SessionConfig,
	app config.AppConfig,
	logger *zap.Logger,
) *FlowHandler {
	return &FlowHandler{
		storage:    storage,
		exchanger:  exchanger,
		authorizer: authorizer,
		sessions:   sessions,
		session:    session,
		app:        app,
		logger:     logger,
	}
}

func (h *FlowHandler) controller(browserID string) *flow.Controller {
	return flow.NewController(h.storage(browserID), h.exchanger, h.authorizer, h.logger)
}

// Login starts the flow and redirects the browser to the provider
// @Summary Start login
// @Tags auth
// @Success 302
// @Router /auth/login [get]
func (h *FlowHandler) Login(c *gin.Context) {
	browserID, err := c.Cookie(BrowserCookie)
	if err != nil || browserID == "" {
		browserID = uuid.New().String()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(BrowserCookie, browserID, int(h.session.StorageTTL.Seconds()), "/", "", h.session.Secure, true)

	target, err := h.controller(browserID).InitiateLogin(c.Request.Context())
	if err != nil {
		h.redirectFailure(c, "server_error")
		return
	}

	c.Redirect(http.StatusFound, target)
}

// Callback completes the flow, issues a session cookie and redirects to the UI
// @Summary Provider callback
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "State value"
// @Success 302
// @Router /auth/callback [get]
func (h *FlowHandler) Callback(c *gin.Context) {
	// without the cookie no stored state can match, the controller uses an empty area and fails
	browserID, _ := c.Cookie(BrowserCookie)
	if browserID == "" {
		browserID = uuid.New().String()
	}

	ctx := c.Request.Context()
	result, err := h.controller(browserID).HandleCallback(ctx, c.Request.URL.Query())
	if err != nil {
		h.redirectFailure(c, callbackErrorCode(err))
		return
	}

	sessionToken, _, err := h.sessions.Issue(ctx, result.User.ID)
	if err != nil {
		h.logger.Error("failed to issue session", zap.String("user_id", result.User.ID), zap.Error(err))
		h.redirectFailure(c, "server_error")
		return
	}

	setSessionCookie(c, sessionToken, int(h.sessions.TTL().Seconds()), h.session.Secure)
	c.Redirect(http.StatusFound, h.app.SuccessRedirect)
}

func (h *FlowHandler) redirectFailure(c *gin.Context, code string) {
	target, err := url.Parse(h.app.FailureRedirect)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
		return
	}

	q := target.Query()
	q.Set("error", code)
	target.RawQuery = q.Encode()

	c.Redirect(http.StatusFound, target.String())
}

func callbackErrorCode(err error) string {
	var (
		cbErr   *flow.CallbackError
		authErr *hh.ProviderAuthError
	)
	switch {
	case errors.As(err, &cbErr):
		return cbErr.Code
	case errors.Is(err, flow.ErrMissingParameters):
		return "missing_parameters"
	case errors.Is(err, flow.ErrStateMismatch):
		return "state_mismatch"
	case errors.As(err, &authErr):
		return authErr.Code
	case errors.As(err, new(*service.ProfileFetchError)):
		return "profile_fetch_failed"
	default:
		return "server_error"
	}
}
