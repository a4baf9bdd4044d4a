package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/internal/utils"
	"go.uber.org/zap"
)

// AuthResult is the outcome of a successful code exchange
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *domain.User
}

// authService implements AuthService interface
type authService struct {
	issuer TokenIssuer
	api    ProviderAPI
	users  repository.UserRepository
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	issuer TokenIssuer,
	api ProviderAPI,
	users repository.UserRepository,
	tokens TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		issuer: issuer,
		api:    api,
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// ExchangeCode trades the authorization code for tokens, resolves the local user and stores the pair
func (s *authService) ExchangeCode(ctx context.Context, code string) (*AuthResult, error) {
	tok, err := s.issuer.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.api.Me(ctx, tok.AccessToken)
	if err != nil {
		return nil, &ProfileFetchError{Err: err}
	}
	if profile.ID == "" {
		return nil, &ProfileFetchError{Err: errors.New("profile has no id")}
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	record, err := s.tokens.SaveToken(ctx, user.ID, tok.AccessToken, tok.RefreshToken, tok.ExpiresIn)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated",
		zap.String("user_id", user.ID),
		zap.String("external_id", profile.ID),
	)

	return &AuthResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    record.ExpiresAt,
		User:         user,
	}, nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// resolveUser finds the user by provider id, then by fallback username, and creates one when both miss
func (s *authService) resolveUser(ctx context.Context, profile *domain.Profile) (*domain.User, error) {
	now := s.now()

	user, err := s.users.GetByExternalID(ctx, profile.ID)
	if errors.Is(err, repository.ErrNotFound) {
		var created bool
		user, created, err = s.findOrCreateByUsername(ctx, profile, now)
		if err != nil {
			return nil, err
		}
		if created {
			return user, nil
		}
	} else if err != nil {
		return nil, err
	}

	externalID := profile.ID
	user.ExternalID = &externalID
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	if email := utils.SanitizeEmail(profile.Email); email != "" {
		user.Email = email
	}
	user.LastLoginAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) findOrCreateByUsername(ctx context.Context, profile *domain.Profile, now time.Time) (*domain.User, bool, error) {
	username := utils.FallbackUsername(profile.Email, profile.ID)

	user, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	externalID := profile.ID
	user = &domain.User{
		Username:    username,
		ExternalID:  &externalID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       utils.SanitizeEmail(profile.Email),
		CreatedAt:   now,
		LastLoginAt: now,
	}

	err = s.users.Create(ctx, user)
	if err == nil {
		s.logger.Info("user created", zap.String("user_id", user.ID))
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateUser) {
		return nil, false, err
	}

	// a concurrent login of the same account created the row first
	s.logger.Debug("user create raced, reloading", zap.String("username", username))
	user, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}
