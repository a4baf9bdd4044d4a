// Package flow drives the browser side of the OAuth login: state generation, the redirect and the callback.
package flow

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"go.uber.org/zap"
)

// State is a step of the login state machine
type State string

const (
	StateIdle             State = "idle"
	StateRedirecting      State = "redirecting"
	StateAwaitingCallback State = "awaiting_callback"
	StateValidatingState  State = "validating_state"
	StateExchanging       State = "exchanging"
	StateAuthenticated    State = "authenticated"
	StateFailed           State = "failed"
)

// Storage keys of the client-side area
const (
	KeyState           = "state"
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyTokenExpiration = "tokenExpiration"
	KeyUser            = "user"
)

var tokenKeys = []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiration, KeyUser}

// Storage is the per-browser key-value area the flow keeps its state in.
// Take reads and removes a key in one step.
type Storage interface {
	Take(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Exchanger trades an authorization code for tokens and a local user
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*service.AuthResult, error)
}

// Authorizer builds the provider authorization URL for a state value
type Authorizer interface {
	AuthCodeURL(state string) string
}

// StoredUser is the user projection kept in client storage
type StoredUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Controller runs one login attempt. It is not safe for concurrent use.
type Controller struct {
	storage    Storage
	exchanger  Exchanger
	authorizer Authorizer
	logger     *zap.Logger
	now        func() time.Time
	state      State
}

func NewController(storage Storage, exchanger Exchanger, authorizer Authorizer, logger *zap.Logger) *Controller {
	return &Controller{
		storage:    storage,
		exchanger:  exchanger,
		authorizer: authorizer,
		logger:     logger,
		now:        time.Now,
		state:      StateIdle,
	}
}

// State returns the current step
func (c *Controller) State() State {
	return c.state
}

// InitiateLogin clears stale tokens, stores a fresh state value and returns the URL to send the browser to
func (c *Controller) InitiateLogin(ctx context.Context) (string, error) {
	c.state = StateRedirecting

	if err := c.storage.Delete(ctx, append([]string{KeyState}, tokenKeys...)...); err != nil {
		return "", c.fail(fmt.Errorf("failed to clear client storage: %w", err))
	}

	state, err := domain.NewOAuthState(c.now())
	if err != nil {
		return "", c.fail(err)
	}

	if err := c.storage.Set(ctx, KeyState, state.Value); err != nil {
		return "", c.fail(fmt.Errorf("failed to store state: %w", err))
	}

	c.state = StateAwaitingCallback
	return c.authorizer.AuthCodeURL(state.Value), nil
}

// HandleCallback validates the provider redirect and completes the login.
// The stored state is consumed before anything else, so a replayed callback always fails.
func (c *Controller) HandleCallback(ctx context.Context, query url.Values) (*service.AuthResult, error) {
	if code := query.Get("error"); code != "" {
		return nil, c.fail(&CallbackError{Code: code, Description: query.Get("error_description")})
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		return nil, c.fail(ErrMissingParameters)
	}

	c.state = StateValidatingState
	if err := c.consumeState(ctx, state); err != nil {
		return nil, c.fail(err)
	}

	c.state = StateExchanging
	result, err := c.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		c.clearTokens(ctx)
		return nil, c.fail(err)
	}

	if err := c.persist(ctx, result); err != nil {
		c.clearTokens(ctx)
		return nil, c.fail(err)
	}

	c.state = StateAuthenticated
	return result, nil
}

func (c *Controller) consumeState(ctx context.Context, received string) error {
	stored, ok, err := c.storage.Take(ctx, KeyState)
	if err != nil {
		if delErr := c.storage.Delete(ctx, KeyState); delErr != nil {
			c.logger.Warn("failed to drop state after read error", zap.Error(delErr))
		}
		return fmt.Errorf("failed to read state: %w", err)
	}

	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(received)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

func (c *Controller) persist(ctx context.Context, result *service.AuthResult) error {
	user, err := json.Marshal(StoredUser{
		ID:        result.User.ID,
		Email:     result.User.Email,
		FirstName: result.User.FirstName,
		LastName:  result.User.LastName,
	})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	values := [][2]string{
		{KeyAccessToken, result.AccessToken},
		{KeyRefreshToken, result.RefreshToken},
		{KeyTokenExpiration, strconv.FormatInt(result.ExpiresAt.UnixMilli(), 10)},
		{KeyUser, string(user)},
	}
	for _, kv := range values {
		if err := c.storage.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to store %s: %w", kv[0], err)
		}
	}
	return nil
}

func (c *Controller) clearTokens(ctx context.Context) {
	if err := c.storage.Delete(ctx, tokenKeys...); err != nil {
		c.logger.Warn("failed to clear partial login data", zap.Error(err))
	}
}

func (c *Controller) fail(err error) error {
	c.state = StateFailed
	c.logger.Warn("login flow failed", zap.Error(err))
	return err
}
