package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"go.uber.org/zap"
)

// Reasons a bulk run ended before the last vacancy
const (
	StopDailyLimit = "daily_limit"
	StopReauth     = "reauth"
	StopCancelled  = "cancelled"
	StopTimeBudget = "time_budget"
)

type BulkApplyInput struct {
	Filter      domain.SearchFilter
	ResumeID    string
	CoverLetter string
}

// BulkResult tallies a bulk run. Failures are never dropped.
type BulkResult struct {
	Total    int
	Applied  int
	Skipped  int
	Failed   int
	Failures []BulkFailure
	Stopped  string
}

type BulkFailure struct {
	VacancyID string
	Name      string
	Err       error
}

type bulkApplier struct {
	vacancies    VacancyService
	applications repository.ApplicationRepository
	delay        time.Duration
	dailyLimit   int
	budget       time.Duration
	logger       *zap.Logger
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewBulkApplier creates a sequential bulk applier. dailyLimit 0 disables the cap.
// budget bounds how long a run keeps starting new submissions; 0 leaves it unbounded.
func NewBulkApplier(
	vacancies VacancyService,
	applications repository.ApplicationRepository,
	delay time.Duration,
	dailyLimit int,
	budget time.Duration,
	logger *zap.Logger,
) BulkApplier {
	return &bulkApplier{
		vacancies:    vacancies,
		applications: applications,
		delay:        delay,
		dailyLimit:   dailyLimit,
		budget:       budget,
		logger:       logger,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// ApplyAll searches with the filter and applies to each result in order, pausing between provider submissions.
// It stops early on a dead token, a cancelled context, the daily cap or an exhausted time budget.
// Other failures are counted and the run goes on.
func (b *bulkApplier) ApplyAll(ctx context.Context, userID string, input BulkApplyInput) (*BulkResult, error) {
	search, err := b.vacancies.SearchVacancies(ctx, userID, input.Filter)
	if err != nil {
		return nil, err
	}

	coverLetter := input.CoverLetter
	if coverLetter == "" {
		coverLetter = input.Filter.CoverLetter
	}

	appliedToday, err := b.appliedToday(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Total: len(search.Items), Failures: []BulkFailure{}}
	submitted := 0
	started := b.now()

	for _, vacancy := range search.Items {
		if ctx.Err() != nil {
			result.Stopped = StopCancelled
			break
		}
		if b.dailyLimit > 0 && appliedToday >= b.dailyLimit {
			result.Stopped = StopDailyLimit
			break
		}

		if _, err := b.applications.GetByUserAndVacancy(ctx, userID, vacancy.ID); err == nil {
			result.Skipped++
			continue
		}

		var pause time.Duration
		if submitted > 0 {
			pause = b.delay
		}
		if b.budget > 0 && b.now().Sub(started)+pause >= b.budget {
			result.Stopped = StopTimeBudget
			break
		}

		if pause > 0 {
			if err := b.sleep(ctx, pause); err != nil {
				result.Stopped = StopCancelled
				break
			}
		}

		_, err := b.vacancies.Apply(ctx, userID, ApplyInput{
			VacancyID:   vacancy.ID,
			ResumeID:    input.ResumeID,
			CoverLetter: coverLetter,
		})

		switch {
		case err == nil:
			result.Applied++
			appliedToday++
			submitted++
		case errors.Is(err, ErrAlreadyApplied):
			result.Skipped++
		case errors.Is(err, hh.ErrRequireReauth), errors.Is(err, ErrNoValidToken):
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{VacancyID: vacancy.ID, Name: vacancy.Name, Err: err})
			result.Stopped = StopReauth
			b.logResult(userID, result)
			return result, err
		default:
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{VacancyID: vacancy.ID, Name: vacancy.Name, Err: err})
			submitted++
			b.logger.Warn("bulk apply: vacancy failed",
				zap.String("user_id", userID),
				zap.String("vacancy_id", vacancy.ID),
				zap.Error(err),
			)
		}
	}

	b.logResult(userID, result)
	return result, nil
}

func (b *bulkApplier) appliedToday(ctx context.Context, userID string) (int, error) {
	if b.dailyLimit <= 0 {
		return 0, nil
	}

	now := b.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := b.applications.CountSince(ctx, userID, startOfDay)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's applications: %w", err)
	}
	return count, nil
}

func (b *bulkApplier) logResult(userID string, result *BulkResult) {
	b.logger.Info("bulk apply finished",
		zap.String("user_id", userID),
		zap.Int("total", result.Total),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.String("stopped", result.Stopped),
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
