package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
)

const (
	// SessionCookie carries the service session token for browser clients
	SessionCookie = "session_token"

	ctxUserID  = "user_id"
	ctxSession = "session"
)

// SessionMiddleware authenticates the request by the service session token and puts the local user id into the context.
// The token is read from "Authorization: Bearer <token>" or, failing that, from the session cookie.
func SessionMiddleware(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			writeError(c, service.ErrInvalidSession)
			return
		}

		claims, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxSession, claims)

		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie
}

// currentUserID returns the user id set by SessionMiddleware
func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func currentSession(c *gin.Context) *domain.SessionClaims {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	claims, _ := v.(*domain.SessionClaims)
	return claims
}
