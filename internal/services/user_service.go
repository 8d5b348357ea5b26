// Package services – UserService
//
// This file implements UserService: account creation keyed by username,
// lookups, the language preference and experience levels.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/repo"
)

const maxUsernameLen = 128

// UserRepo defines the account persistence contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a new account; repo.ErrDuplicate on a taken username.
	CreateUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error)
	UpdateLanguage(ctx context.Context, db *gorm.DB, id, lang string) error
	AddExperience(ctx context.Context, db *gorm.DB, id string, xp int64) error
}

// UserService manages economy accounts.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository.
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

// Create returns the account named username, creating it on first use.
// Whitespace around the name is ignored.
func (s *UserService) Create(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		username = string([]rune(username)[:maxUsernameLen])
	}

	if u, err := s.Repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return u, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, username)
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost a race with a concurrent create of the same name.
		return s.Repo.GetUserByUsername(ctx, s.DB, username)
	}
	return u, err
}

// Get fetches an account by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.mapNotFound(s.Repo.GetUser(ctx, s.DB, id))
}

// GetByUsername fetches an account by exact username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.mapNotFound(s.Repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username)))
}

// SetLanguage stores the user's language. Only "en" and "zh" are accepted.
func (s *UserService) SetLanguage(ctx context.Context, id, lang string) (*domain.User, error) {
	if !ValidLanguage(lang) {
		return nil, ErrInvalidLanguage
	}
	if err := s.Repo.UpdateLanguage(ctx, s.DB, id, lang); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Level returns the user's experience and tier.
func (s *UserService) Level(ctx context.Context, id string) (int64, LevelInfo, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return 0, LevelInfo{}, err
	}
	return u.Experience, LevelFor(u.Experience, u.Language), nil
}

// AddExperience adds xp (negative values subtract) and returns the new
// total and tier. Experience cannot drop below zero.
func (s *UserService) AddExperience(ctx context.Context, id string, xp int64) (int64, LevelInfo, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return 0, LevelInfo{}, err
	}
	if u.Experience+xp < 0 {
		return 0, LevelInfo{}, ErrInvalidAmount
	}
	if xp != 0 {
		if err := s.Repo.AddExperience(ctx, s.DB, id, xp); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, LevelInfo{}, ErrUserNotFound
			}
			return 0, LevelInfo{}, err
		}
	}
	return s.Level(ctx, id)
}

func (s *UserService) mapNotFound(u *domain.User, err error) (*domain.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
