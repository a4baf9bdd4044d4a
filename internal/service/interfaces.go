package service

import (
	"context"
	"net/url"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
)

// TokenIssuer is the provider's token endpoint
type TokenIssuer interface {
	Exchange(ctx context.Context, code string) (*hh.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*hh.Token, error)
}

// ProviderAPI is the provider resource API the services call
type ProviderAPI interface {
	Me(ctx context.Context, accessToken string) (*domain.Profile, error)
	SearchVacancies(ctx context.Context, accessToken string, query url.Values) (*domain.VacancyPage, error)
	Vacancy(ctx context.Context, accessToken, vacancyID string) (*domain.Vacancy, error)
	Resumes(ctx context.Context, accessToken string) (*domain.ResumeList, error)
	Negotiations(ctx context.Context, accessToken string) (*domain.NegotiationList, error)
	Apply(ctx context.Context, accessToken string, req hh.ApplyRequest) (*hh.ApplyResult, error)
}

// TokenStore is the only writer of provider token records
type TokenStore interface {
	SaveToken(ctx context.Context, userID, accessToken, refreshToken string, expiresIn int64) (*domain.TokenRecord, error)
	// GetLatestToken returns a non-expired record, refreshing inline when needed, or ErrNoValidToken
	GetLatestToken(ctx context.Context, userID string) (*domain.TokenRecord, error)
	DeleteToken(ctx context.Context, userID string) error
	// RefreshToken forces a refresh of the stored record
	RefreshToken(ctx context.Context, userID string) (*domain.TokenRecord, error)
}

// AuthService exchanges authorization codes and resolves local users
type AuthService interface {
	ExchangeCode(ctx context.Context, code string) (*AuthResult, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// VacancyService proxies authenticated provider calls on behalf of a local user
type VacancyService interface {
	SearchVacancies(ctx context.Context, userID string, filter domain.SearchFilter) (*SearchResult, error)
	GetVacancy(ctx context.Context, userID, vacancyID string) (*domain.Vacancy, error)
	ListResumes(ctx context.Context, userID string) (*domain.ResumeList, error)
	ListNegotiations(ctx context.Context, userID string) (*domain.NegotiationList, error)
	Apply(ctx context.Context, userID string, input ApplyInput) (*ApplyOutcome, error)
	History(ctx context.Context, userID string) (*History, error)
}

// BulkApplier applies to every vacancy a search returns
type BulkApplier interface {
	ApplyAll(ctx context.Context, userID string, input BulkApplyInput) (*BulkResult, error)
}

// SessionService issues and checks the service's own session tokens
type SessionService interface {
	Issue(ctx context.Context, userID string) (string, *domain.SessionClaims, error)
	Validate(ctx context.Context, token string) (*domain.SessionClaims, error)
	Revoke(ctx context.Context, claims *domain.SessionClaims) error
	TTL() time.Duration
}

// SessionRevoker remembers revoked session ids until they would have expired anyway
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Limiter is a keyed sliding window limiter
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}
