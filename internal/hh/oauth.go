package hh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/config"
	"golang.org/x/oauth2"
)

// Token is a token pair issued by the provider
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// OAuthClient talks to the provider's authorization and token endpoints
type OAuthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

// NewOAuthClient creates an OAuth client from the registered application credentials
func NewOAuthClient(cfg config.HHConfig, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		timeout:    cfg.RequestTimeout.Duration,
	}
}

// AuthCodeURL builds the provider consent page URL carrying response_type=code, client_id, redirect_uri and state
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// Exchange trades a one-time authorization code for a token pair. It is never retried.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*Token, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, mapTokenError(err)
	}

	return newToken(tok), nil
}

// Refresh obtains a new token pair with the refresh_token grant
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	tok, err := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, mapTokenError(err)
	}

	return newToken(tok), nil
}

func (c *OAuthClient) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func newToken(tok *oauth2.Token) *Token {
	expiresIn := tok.ExpiresIn
	if expiresIn == 0 && !tok.Expiry.IsZero() {
		expiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}

	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}

// mapTokenError turns oauth2 failures into ProviderAuthError. Transport failures become 502 server_error.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &ProviderAuthError{
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
		}
		if retrieveErr.Response != nil {
			authErr.Status = retrieveErr.Response.StatusCode
		}
		if authErr.Status == 0 {
			authErr.Status = http.StatusBadGateway
		}
		if authErr.Code == "" {
			authErr.Code = "token_request_failed"
			if authErr.Description == "" {
				authErr.Description = string(retrieveErr.Body)
			}
		}
		return authErr
	}

	return &ProviderAuthError{
		Status:      http.StatusBadGateway,
		Code:        "server_error",
		Description: fmt.Sprintf("token request failed: %v", err),
	}
}
