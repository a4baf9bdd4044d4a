package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/pkg/observability"
	"go.uber.org/zap"
)

// tokenStore implements TokenStore over the token repository
type tokenStore struct {
	repo      repository.TokenRepository
	refresher *RefreshService
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenStore creates the token store together with its refresh service
func NewTokenStore(repo repository.TokenRepository, issuer TokenIssuer, logger *zap.Logger, metrics *observability.Metrics) TokenStore {
	s := &tokenStore{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	s.refresher = NewRefreshService(issuer, s, logger, metrics)
	return s
}

// SaveToken upserts the user's token pair with expiresAt = now + expiresIn seconds
func (s *tokenStore) SaveToken(ctx context.Context, userID, accessToken, refreshToken string, expiresIn int64) (*domain.TokenRecord, error) {
	now := s.now()
	record := &domain.TokenRecord{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		UpdatedAt:    now,
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return record, nil
}

// GetLatestToken returns the user's usable token, refreshing an expired one inline
func (s *tokenStore) GetLatestToken(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !record.IsExpired(s.now()) {
		return record, nil
	}

	fresh, err := s.refresher.RefreshRecord(ctx, record)
	if err != nil {
		s.logger.Warn("expired token could not be refreshed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, ErrNoValidToken
	}

	return fresh, nil
}

// DeleteToken removes the user's token pair unconditionally
func (s *tokenStore) DeleteToken(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// RefreshToken refreshes the stored token pair whether or not it has expired
func (s *tokenStore) RefreshToken(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.refresher.RefreshRecord(ctx, record)
}

func (s *tokenStore) load(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	record, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoValidToken
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	return record, nil
}
