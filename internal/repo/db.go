// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations and reference-data seeding.
package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs and
// installs the OpenTelemetry tracing plugin.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Chart{},
		&domain.User{},
		&domain.Transaction{},
		&domain.Revenue{},
		&domain.Product{},
		&domain.Reading{},
		&domain.Idempotency{},
	)
}

// DefaultProducts is the catalog shipped with the service.
var DefaultProducts = []domain.Product{
	{ID: "1", Name: "完整韦特牌组", Description: "包含所有78张韦特牌的完整牌组", Price: 99, Image: "🎴"},
	{ID: "2", Name: "专业牌阵解读", Description: "解锁更多专业牌阵和详细解读", Price: 49, Image: "📚"},
}

// SeedProducts inserts the default catalog, leaving existing rows untouched.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	items := make([]domain.Product, len(DefaultProducts))
	copy(items, DefaultProducts)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&items).Error
}

// Development account created when SEED_TEST_USER is enabled.
const (
	TestUserID       = "test_user_123"
	TestUserName     = "Test User"
	TestUserBalance  = 5000
	testUserLanguage = "en"
)

// SeedTestUser creates the development account if it does not exist yet.
func SeedTestUser(ctx context.Context, db *gorm.DB) error {
	_, err := GetUser(ctx, db, TestUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:                TestUserID,
		Username:          TestUserName,
		Balance:           TestUserBalance,
		Language:          testUserLanguage,
		PurchasedProducts: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return db.WithContext(ctx).Create(u).Error
}
