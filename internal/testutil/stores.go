// Package testutil holds stateful in-memory fakes shared by tests across packages.
// Use the *Err fields to inject errors into individual operations.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/hh-autoapply/internal/domain"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	CreateErr error
	GetErr    error
	UpdateErr error

	// RaceOnCreate simulates a concurrent login: the user is inserted, but Create reports a duplicate
	RaceOnCreate bool

	Users map[string]*domain.User // keyed by id

	CreateCalls int
	UpdateCalls int

	mu sync.Mutex
}

func NewUserRepo(users ...*domain.User) *UserRepo {
	r := &UserRepo{Users: make(map[string]*domain.User)}
	for _, u := range users {
		r.Users[u.ID] = u
	}
	return r
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CreateCalls++
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, u := range r.Users {
		if u.Username == user.Username || (user.ExternalID != nil && u.ExternalID != nil && *u.ExternalID == *user.ExternalID) {
			return fmt.Errorf("user %s: %w", user.Username, repository.ErrDuplicateUser)
		}
	}
	if r.RaceOnCreate {
		// another request inserted the same account first
		winner := *user
		winner.ID = uuid.New().String()
		r.Users[winner.ID] = &winner
		return fmt.Errorf("user %s: %w", user.Username, repository.ErrDuplicateUser)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	r.Users[user.ID] = &stored
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ExternalID != nil && *u.ExternalID == externalID })
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateCalls++
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	if _, ok := r.Users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, repository.ErrNotFound)
	}
	stored := *user
	r.Users[user.ID] = &stored
	return nil
}

func (r *UserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	for _, u := range r.Users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// TokenRepo implements repository.TokenRepository
type TokenRepo struct {
	UpsertErr error
	GetErr    error
	DeleteErr error

	Tokens map[string]*domain.TokenRecord // keyed by user id

	UpsertCalls int
	DeleteCalls int

	mu sync.Mutex
}

func NewTokenRepo(records ...*domain.TokenRecord) *TokenRepo {
	r := &TokenRepo{Tokens: make(map[string]*domain.TokenRecord)}
	for _, t := range records {
		r.Tokens[t.UserID] = t
	}
	return r
}

func (r *TokenRepo) Upsert(_ context.Context, token *domain.TokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpsertCalls++
	if r.UpsertErr != nil {
		return r.UpsertErr
	}
	stored := *token
	r.Tokens[token.UserID] = &stored
	return nil
}

func (r *TokenRepo) GetByUserID(_ context.Context, userID string) (*domain.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	t, ok := r.Tokens[userID]
	if !ok {
		return nil, fmt.Errorf("token for %s: %w", userID, repository.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (r *TokenRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeleteCalls++
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.Tokens, userID)
	return nil
}

// Get returns the stored record without going through the repository interface
func (r *TokenRepo) Get(userID string) (*domain.TokenRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Tokens[userID]
	return t, ok
}

// ApplicationRepo implements repository.ApplicationRepository
type ApplicationRepo struct {
	CreateErr error
	GetErr    error
	ListErr   error
	CountErr  error

	Applications []*domain.ApplicationRecord

	mu sync.Mutex
}

func NewApplicationRepo(records ...*domain.ApplicationRecord) *ApplicationRepo {
	return &ApplicationRepo{Applications: records}
}

func (r *ApplicationRepo) Create(_ context.Context, a *domain.ApplicationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, existing := range r.Applications {
		if existing.UserID == a.UserID && existing.VacancyID == a.VacancyID {
			return fmt.Errorf("vacancy %s: %w", a.VacancyID, repository.ErrDuplicateApplication)
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	stored := *a
	r.Applications = append(r.Applications, &stored)
	return nil
}

func (r *ApplicationRepo) GetByUserAndVacancy(_ context.Context, userID, vacancyID string) (*domain.ApplicationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	for _, a := range r.Applications {
		if a.UserID == userID && a.VacancyID == vacancyID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("vacancy %s: %w", vacancyID, repository.ErrNotFound)
}

func (r *ApplicationRepo) ListByUser(_ context.Context, userID string) ([]*domain.ApplicationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	list := make([]*domain.ApplicationRecord, 0)
	for _, a := range r.Applications {
		if a.UserID == userID {
			copied := *a
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AppliedAt.After(list[j].AppliedAt) })
	return list, nil
}

func (r *ApplicationRepo) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	count := 0
	for _, a := range r.Applications {
		if a.UserID == userID && !a.AppliedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored applications
func (r *ApplicationRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Applications)
}
