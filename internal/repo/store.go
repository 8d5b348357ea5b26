package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// Store exposes the package functions as methods so it satisfies the
// repository interfaces declared by the services. It has no state; every
// call runs on the *gorm.DB it is given, which may be a transaction.
type Store struct{}

func (Store) CreateChart(ctx context.Context, db *gorm.DB, c *domain.Chart) error {
	return CreateChart(ctx, db, c)
}

func (Store) GetChart(ctx context.Context, db *gorm.DB, id string) (*domain.Chart, error) {
	return GetChart(ctx, db, id)
}

func (Store) MarkPremiumUnlocked(ctx context.Context, db *gorm.DB, id, userID, text string, at time.Time) error {
	return MarkPremiumUnlocked(ctx, db, id, userID, text, at)
}

func (Store) CreateUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return CreateUser(ctx, db, username)
}

func (Store) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return GetUser(ctx, db, id)
}

func (Store) GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return GetUserByUsername(ctx, db, username)
}

func (Store) UpdateLanguage(ctx context.Context, db *gorm.DB, id, lang string) error {
	return UpdateLanguage(ctx, db, id, lang)
}

func (Store) AddExperience(ctx context.Context, db *gorm.DB, id string, xp int64) error {
	return AddExperience(ctx, db, id, xp)
}

func (Store) AddPurchasedProduct(ctx context.Context, db *gorm.DB, id, productID string) error {
	return AddPurchasedProduct(ctx, db, id, productID)
}

func (Store) CreditBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error {
	return CreditBalance(ctx, db, userID, amount)
}

func (Store) DebitBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error {
	return DebitBalance(ctx, db, userID, amount)
}

func (Store) AppendTransaction(ctx context.Context, db *gorm.DB, userID string, amount int64, typ, description string) (*domain.Transaction, error) {
	return AppendTransaction(ctx, db, userID, amount, typ, description)
}

func (Store) CountTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return CountTransactions(ctx, db, userID)
}

func (Store) ListTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transaction, error) {
	return ListTransactionsPage(ctx, db, userID, offset, limit)
}

func (Store) RecordRevenue(ctx context.Context, db *gorm.DB, source string, amount decimal.Decimal) (*domain.Revenue, error) {
	return RecordRevenue(ctx, db, source, amount)
}

func (Store) SummarizeRevenue(ctx context.Context, db *gorm.DB, from, to *time.Time) (RevenueTotals, error) {
	return SummarizeRevenue(ctx, db, from, to)
}

func (Store) ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	return ListProducts(ctx, db)
}

func (Store) GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	return GetProduct(ctx, db, id)
}

func (Store) CreateReading(ctx context.Context, db *gorm.DB, userID, spreadType string, cards []byte) (*domain.Reading, error) {
	return CreateReading(ctx, db, userID, spreadType, cards)
}

func (Store) ListReadings(ctx context.Context, db *gorm.DB, userID string) ([]domain.Reading, error) {
	return ListReadings(ctx, db, userID)
}

func (Store) ReadingsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return ReadingsStats(ctx, db, userID)
}
