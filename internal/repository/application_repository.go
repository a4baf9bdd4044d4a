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

const applicationColumns = `id, user_id, vacancy_id, vacancy_title, company_name, salary_display, location,
	applied_at, status, url, cover_letter`

type applicationRepository struct {
	db *database.Postgres
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *database.Postgres) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create stores a new application. The (user_id, vacancy_id) unique index rejects repeats.
func (r *applicationRepository) Create(ctx context.Context, a *domain.ApplicationRecord) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = domain.ApplicationApplied
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.VacancyID,
		a.VacancyTitle,
		a.CompanyName,
		a.SalaryDisplay,
		a.Location,
		a.AppliedAt,
		a.Status,
		a.URL,
		a.CoverLetter,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vacancy %s: %w", a.VacancyID, ErrDuplicateApplication)
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// GetByUserAndVacancy retrieves the user's application for a vacancy
func (r *applicationRepository) GetByUserAndVacancy(ctx context.Context, userID, vacancyID string) (*domain.ApplicationRecord, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = $1 AND vacancy_id = $2`

	a, err := scanApplication(r.db.DB.QueryRowContext(ctx, query, userID, vacancyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application for vacancy %s not found: %w", vacancyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return a, nil
}

// ListByUser returns the user's applications, newest first
func (r *applicationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ApplicationRecord, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = $1 ORDER BY applied_at DESC`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	applications := make([]*domain.ApplicationRecord, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return applications, nil
}

// CountSince counts the user's applications submitted at or after since
func (r *applicationRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM applications WHERE user_id = $1 AND applied_at >= $2`

	var count int
	if err := r.db.DB.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.ApplicationRecord, error) {
	a := &domain.ApplicationRecord{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.VacancyID,
		&a.VacancyTitle,
		&a.CompanyName,
		&a.SalaryDisplay,
		&a.Location,
		&a.AppliedAt,
		&a.Status,
		&a.URL,
		&a.CoverLetter,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
