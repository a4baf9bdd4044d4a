package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/pkg/database"
)

const userColumns = `id, username, external_id, first_name, last_name, email, created_at, last_login_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastLoginAt.IsZero() {
		user.LastLoginAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.ExternalID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.CreatedAt,
		user.LastLoginAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already exists: %w", user.Username, ErrDuplicateUser)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByExternalID retrieves a user by the provider's user id
func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return r.getOne(ctx, "external_id", externalID)
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username", username)
}

// getOne looks a user up by a unique column. column is never user input.
func (r *userRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user := &domain.User{}
	var externalID sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&externalID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.CreatedAt,
		&user.LastLoginAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %s not found: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	if externalID.Valid {
		user.ExternalID = &externalID.String
	}

	return user, nil
}

// Update refreshes the mutable profile fields and the last login time
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET external_id = $2, first_name = $3, last_name = $4, email = $5, last_login_at = $6
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.ExternalID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.LastLoginAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("external id already linked to another user: %w", ErrDuplicateUser)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", user.ID, ErrNotFound)
	}

	return nil
}
