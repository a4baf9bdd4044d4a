package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/utils"
)

type sessionService struct {
	jwtManager *utils.JWTManager
	revoker    SessionRevoker
	ttl        time.Duration
}

// NewSessionService creates a session service
func NewSessionService(jwtManager *utils.JWTManager, revoker SessionRevoker, ttl time.Duration) SessionService {
	return &sessionService{
		jwtManager: jwtManager,
		revoker:    revoker,
		ttl:        ttl,
	}
}

func (s *sessionService) Issue(_ context.Context, userID string) (string, *domain.SessionClaims, error) {
	token, claims, err := s.jwtManager.GenerateSessionToken(userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return token, claims, nil
}

// Validate checks the signature, expiry and revocation of a session token
func (s *sessionService) Validate(ctx context.Context, token string) (*domain.SessionClaims, error) {
	claims, err := s.jwtManager.ValidateSessionToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidSession)
	}

	return claims, nil
}

// Revoke invalidates the session for the rest of its lifetime
func (s *sessionService) Revoke(ctx context.Context, claims *domain.SessionClaims) error {
	ttl := claims.TTL()
	if ttl <= 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}
