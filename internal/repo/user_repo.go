// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Balance changes do not live here; see ledger.go.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// ErrDuplicate indicates a unique constraint violation (idempotency tuple,
// username).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation recognises UNIQUE failures. glebarez/sqlite often
// returns plain-text errors for them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateUser inserts a user with a zero balance, zero experience and the
// default language. It returns ErrDuplicate if username is taken.
func CreateUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ID:                uuid.NewString(),
		Username:          username,
		Language:          "en",
		PurchasedProducts: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by exact username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateLanguage sets the user's preferred language. ErrNotFound if the user
// does not exist.
func UpdateLanguage(ctx context.Context, db *gorm.DB, id, lang string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"language": lang, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddExperience adds xp (which may be negative) to the user's experience in
// a single UPDATE. The CHECK constraint rejects results below zero.
func AddExperience(ctx context.Context, db *gorm.DB, id string, xp int64) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"experience": gorm.Expr("experience + ?", xp),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddPurchasedProduct appends productID to the user's purchases. It returns
// ErrDuplicate if the product is already owned. Call it inside a transaction
// when it must be atomic with a debit.
func AddPurchasedProduct(ctx context.Context, db *gorm.DB, id, productID string) error {
	u, err := GetUser(ctx, db, id)
	if err != nil {
		return err
	}
	if u.Owns(productID) {
		return ErrDuplicate
	}
	owned := append(append([]string{}, u.PurchasedProducts...), productID)
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"purchased_products": datatypes.JSONSlice[string](owned),
			"updated_at":         time.Now().UTC(),
		}).Error
}
