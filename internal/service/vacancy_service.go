package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/pkg/observability"
	"go.uber.org/zap"
)

const (
	applicationApplied = "applied"
	applicationSkipped = "already_applied"
	applicationFailed  = "failed"
)

// SearchResult is a page of vacancies after local keyword exclusion
type SearchResult struct {
	Items    []domain.Vacancy
	Found    int
	Excluded int
	Page     int
	Pages    int
}

type ApplyInput struct {
	VacancyID   string
	ResumeID    string
	CoverLetter string
}

// ApplyOutcome is a submitted and recorded application
type ApplyOutcome struct {
	Application      *domain.ApplicationRecord
	Location         string
	ProviderResponse any
}

// History is the user's local application history
type History struct {
	Applications []*domain.ApplicationRecord
	Stats        domain.ApplicationStats
}

type vacancyService struct {
	tokens       TokenStore
	api          ProviderAPI
	applications repository.ApplicationRepository
	logger       *zap.Logger
	metrics      *observability.Metrics
	now          func() time.Time
}

// NewVacancyService creates the authenticated provider proxy
func NewVacancyService(
	tokens TokenStore,
	api ProviderAPI,
	applications repository.ApplicationRepository,
	logger *zap.Logger,
	metrics *observability.Metrics,
) VacancyService {
	return &vacancyService{
		tokens:       tokens,
		api:          api,
		applications: applications,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *vacancyService) accessToken(ctx context.Context, userID string) (string, error) {
	record, err := s.tokens.GetLatestToken(ctx, userID)
	if err != nil {
		return "", err
	}
	return record.AccessToken, nil
}

// SearchVacancies queries the provider and drops vacancies matching an excluded keyword
func (s *vacancyService) SearchVacancies(ctx context.Context, userID string, filter domain.SearchFilter) (*SearchResult, error) {
	token, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	page, err := s.api.SearchVacancies(ctx, token, filter.Query())
	if err != nil {
		return nil, err
	}

	items := filter.Exclude(page.Items)
	return &SearchResult{
		Items:    items,
		Found:    page.Found,
		Excluded: len(page.Items) - len(items),
		Page:     page.Page,
		Pages:    page.Pages,
	}, nil
}

func (s *vacancyService) GetVacancy(ctx context.Context, userID, vacancyID string) (*domain.Vacancy, error) {
	token, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.api.Vacancy(ctx, token, vacancyID)
}

func (s *vacancyService) ListResumes(ctx context.Context, userID string) (*domain.ResumeList, error) {
	token, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.api.Resumes(ctx, token)
}

func (s *vacancyService) ListNegotiations(ctx context.Context, userID string) (*domain.NegotiationList, error) {
	token, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.api.Negotiations(ctx, token)
}

// Apply submits an application unless one is already recorded for the vacancy, then records it
func (s *vacancyService) Apply(ctx context.Context, userID string, input ApplyInput) (*ApplyOutcome, error) {
	existing, err := s.applications.GetByUserAndVacancy(ctx, userID, input.VacancyID)
	if err == nil {
		s.metrics.RecordApplication(ctx, applicationSkipped)
		return nil, &AlreadyAppliedError{Application: existing}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	token, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	vacancy, err := s.api.Vacancy(ctx, token, input.VacancyID)
	if err != nil {
		return nil, err
	}

	result, err := s.api.Apply(ctx, token, hh.ApplyRequest{
		VacancyID: input.VacancyID,
		ResumeID:  input.ResumeID,
		Message:   input.CoverLetter,
	})
	if err != nil {
		s.metrics.RecordApplication(ctx, applicationFailed)
		return nil, err
	}
	s.metrics.RecordApplication(ctx, applicationApplied)

	outcome := &ApplyOutcome{Location: result.Location, ProviderResponse: result.Body}

	record := domain.NewApplicationRecord(userID, vacancy, input.CoverLetter, s.now())
	if err := s.applications.Create(ctx, record); err != nil {
		if !errors.Is(err, repository.ErrDuplicateApplication) {
			s.logger.Error("application submitted but not recorded",
				zap.String("user_id", userID),
				zap.String("vacancy_id", input.VacancyID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to record application: %w", err)
		}
		record, err = s.applications.GetByUserAndVacancy(ctx, userID, input.VacancyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load application: %w", err)
		}
	}
	outcome.Application = record

	s.logger.Info("applied to vacancy",
		zap.String("user_id", userID),
		zap.String("vacancy_id", input.VacancyID),
		zap.Int("status", result.Status),
	)

	return outcome, nil
}

// History lists the user's recorded applications with per-status counts
func (s *vacancyService) History(ctx context.Context, userID string) (*History, error) {
	applications, err := s.applications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load applications: %w", err)
	}

	return &History{
		Applications: applications,
		Stats:        domain.NewApplicationStats(applications),
	}, nil
}
