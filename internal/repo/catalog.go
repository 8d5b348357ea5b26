// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file covers the product catalog and saved readings.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// ListProducts returns the catalog ordered by id.
func ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetProduct fetches a product by id, or ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateReading stores a reading for userID. cards is raw JSON.
func CreateReading(ctx context.Context, db *gorm.DB, userID, spreadType string, cards []byte) (*domain.Reading, error) {
	r := &domain.Reading{
		ID:         uuid.NewString(),
		UserID:     userID,
		SpreadType: spreadType,
		Cards:      datatypes.JSON(cards),
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListReadings returns all readings for userID, oldest first.
func ListReadings(ctx context.Context, db *gorm.DB, userID string) ([]domain.Reading, error) {
	var out []domain.Reading
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
