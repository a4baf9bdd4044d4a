package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/pkg/database"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

// Upsert writes the token pair for the user, replacing any previous pair
func (r *tokenRepository) Upsert(ctx context.Context, token *domain.TokenRecord) error {
	query := `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		token.UserID,
		token.AccessToken,
		token.RefreshToken,
		token.ExpiresAt,
		token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}

	return nil
}

// GetByUserID retrieves the token pair of a user
func (r *tokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, updated_at
		FROM oauth_tokens
		WHERE user_id = $1
	`

	token := &domain.TokenRecord{}
	err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(
		&token.UserID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.ExpiresAt,
		&token.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by user id: %w", err)
	}

	return token, nil
}

// Delete removes the token pair of a user. Deleting a missing record is not an error.
func (r *tokenRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM oauth_tokens WHERE user_id = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}
