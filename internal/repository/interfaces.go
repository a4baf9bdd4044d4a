package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// TokenRepository persists the provider token pair, one record per user
type TokenRepository interface {
	Upsert(ctx context.Context, token *domain.TokenRecord) error
	GetByUserID(ctx context.Context, userID string) (*domain.TokenRecord, error)
	Delete(ctx context.Context, userID string) error
}

// ApplicationRepository defines methods for the local application history
type ApplicationRepository interface {
	Create(ctx context.Context, application *domain.ApplicationRecord) error
	GetByUserAndVacancy(ctx context.Context, userID, vacancyID string) (*domain.ApplicationRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.ApplicationRecord, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
