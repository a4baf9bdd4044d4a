package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/pkg/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	refreshSucceeded = "success"
	refreshRejected  = "rejected"
	refreshFailed    = "failed"
	refreshShared    = "shared"
)

// flightTimeout bounds a shared refresh once it is detached from the caller that started it
const flightTimeout = 30 * time.Second

// RefreshService renews expired access tokens. At most one refresh per user is in flight.
type RefreshService struct {
	issuer  TokenIssuer
	store   *tokenStore
	group   singleflight.Group
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRefreshService creates a refresh service writing through the given store
func NewRefreshService(issuer TokenIssuer, store *tokenStore, logger *zap.Logger, metrics *observability.Metrics) *RefreshService {
	return &RefreshService{
		issuer:  issuer,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Refresh reports whether the record was refreshed and saved
func (s *RefreshService) Refresh(ctx context.Context, record *domain.TokenRecord) bool {
	_, err := s.RefreshRecord(ctx, record)
	return err == nil
}

// RefreshRecord exchanges the record's refresh token for a new pair and saves it.
// A rejected refresh token deletes the record and returns an error matching ErrNoValidToken.
// Other failures leave the record in place for a later attempt.
// The flight is shared by every waiter, so it does not stop when the first caller goes away.
func (s *RefreshService) RefreshRecord(ctx context.Context, record *domain.TokenRecord) (*domain.TokenRecord, error) {
	v, err, _ := s.group.Do(record.UserID, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return s.refresh(flightCtx, record)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TokenRecord), nil
}

func (s *RefreshService) refresh(ctx context.Context, stale *domain.TokenRecord) (*domain.TokenRecord, error) {
	current, err := s.store.load(ctx, stale.UserID)
	if err != nil {
		return nil, err
	}

	// a flight that finished just before this one already rotated the pair
	if current.AccessToken != stale.AccessToken && !current.IsExpired(s.store.now()) {
		s.metrics.RecordRefresh(ctx, refreshShared)
		return current, nil
	}

	tok, err := s.issuer.Refresh(ctx, current.RefreshToken)
	if err != nil {
		var authErr *hh.ProviderAuthError
		if errors.As(err, &authErr) && authErr.RefreshTokenRejected() {
			s.metrics.RecordRefresh(ctx, refreshRejected)
			s.logger.Info("refresh token rejected, dropping stored token",
				zap.String("user_id", current.UserID),
				zap.String("code", authErr.Code),
			)
			if delErr := s.store.DeleteToken(ctx, current.UserID); delErr != nil {
				return nil, fmt.Errorf("failed to drop rejected token: %w", delErr)
			}
			return nil, fmt.Errorf("%w: %w", ErrNoValidToken, err)
		}

		s.metrics.RecordRefresh(ctx, refreshFailed)
		s.logger.Warn("token refresh failed",
			zap.String("user_id", current.UserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	saved, err := s.store.SaveToken(ctx, current.UserID, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRefresh(ctx, refreshSucceeded)
	s.logger.Debug("token refreshed",
		zap.String("user_id", current.UserID),
		zap.Time("expires_at", saved.ExpiresAt),
	)
	return saved, nil
}
