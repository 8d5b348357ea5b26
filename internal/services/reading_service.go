package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// ReadingRepo defines the persistence contract required by ReadingService.
type ReadingRepo interface {
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	CreateReading(ctx context.Context, db *gorm.DB, userID, spreadType string, cards []byte) (*domain.Reading, error)
	ListReadings(ctx context.Context, db *gorm.DB, userID string) ([]domain.Reading, error)
	ReadingsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
}

// ReadingService stores tarot readings for users.
type ReadingService struct {
	DB   *gorm.DB
	Repo ReadingRepo
}

// NewReadingService constructs a ReadingService.
func NewReadingService(db *gorm.DB, r ReadingRepo) *ReadingService {
	return &ReadingService{DB: db, Repo: r}
}

// Save stores a reading. cards must be a JSON array.
func (s *ReadingService) Save(ctx context.Context, userID, spreadType string, cards json.RawMessage) (*domain.Reading, error) {
	spreadType = strings.TrimSpace(spreadType)
	if spreadType == "" || !isJSONArray(cards) {
		return nil, ErrInvalidReading
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.Repo.CreateReading(ctx, s.DB, userID, spreadType, cards)
}

// List returns the user's readings, oldest first.
func (s *ReadingService) List(ctx context.Context, userID string) ([]domain.Reading, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	items, err := s.Repo.ListReadings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Reading{}
	}
	return items, nil
}

// Stats returns the number of readings and the newest creation time, for
// cache validators.
func (s *ReadingService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ReadingsStats(ctx, s.DB, userID)
}

func (s *ReadingService) ensureUser(ctx context.Context, userID string) error {
	if _, err := s.Repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	var v []json.RawMessage
	return len(raw) > 0 && json.Unmarshal(raw, &v) == nil
}
