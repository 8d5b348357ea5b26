// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chart model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a chart is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - MarkPremiumUnlocked returns ErrConflict when the chart exists but was
//     already unlocked by a concurrent request.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateChart(ctx, db, chart) -> error
//     Inserts a fully built chart. ID and timestamps are filled when empty.
//
//   - GetChart(ctx, db, id) -> *domain.Chart, error
//     Fetches a single chart by ID, or ErrNotFound if missing.
//
//   - MarkPremiumUnlocked(ctx, db, id, userID, text, at) -> error
//     Compare-and-set of the premium flag from false to true.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict is returned when a conditional update lost a race: the row
// exists but no longer satisfies the update's precondition.
var ErrConflict = errors.New("conflict")

// CreateChart inserts c. A missing ID is replaced with a random UUID and
// zero timestamps are set to the current UTC time.
func CreateChart(ctx context.Context, db *gorm.DB, c *domain.Chart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetChart fetches a chart by id. If the record does not exist, it returns
// ErrNotFound.
func GetChart(ctx context.Context, db *gorm.DB, id string) (*domain.Chart, error) {
	var c domain.Chart
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkPremiumUnlocked stores the premium text and flips is_premium_unlocked
// to true, but only while it is still false. It returns ErrNotFound if the
// chart is missing and ErrConflict if it was already unlocked.
func MarkPremiumUnlocked(ctx context.Context, db *gorm.DB, id, userID, text string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Chart{}).
		Where("id = ? AND is_premium_unlocked = ?", id, false).
		Updates(map[string]any{
			"is_premium_unlocked":    true,
			"premium_interpretation": text,
			"unlocked_by":            userID,
			"unlocked_at":            at.UTC(),
			"updated_at":             at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Chart{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
