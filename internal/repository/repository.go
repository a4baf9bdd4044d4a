package repository

import (
	"github.com/prperemyshlev/hh-autoapply/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User        UserRepository
	Token       TokenRepository
	Application ApplicationRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Token:       NewTokenRepository(db),
		Application: NewApplicationRepository(db),
	}
}
