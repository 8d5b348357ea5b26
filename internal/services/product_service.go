// Package services – ProductService
//
// This file implements ProductService, which lists the coin catalog and
// sells catalog items. A purchase debits the price, records ownership,
// appends the ledger entry, books revenue and grants experience in a
// single transaction. Purchases are serialized per user so ownership is
// checked and recorded atomically.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/observability"
	"github.com/tbourn/astro-chart-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepo defines the catalog and ledger contract required by
// ProductService.
type ProductRepo interface {
	ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error)
	GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error)

	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	DebitBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error
	AddPurchasedProduct(ctx context.Context, db *gorm.DB, id, productID string) error
	AddExperience(ctx context.Context, db *gorm.DB, id string, xp int64) error
	AppendTransaction(ctx context.Context, db *gorm.DB, userID string, amount int64, typ, description string) (*domain.Transaction, error)
	RecordRevenue(ctx context.Context, db *gorm.DB, source string, amount decimal.Decimal) (*domain.Revenue, error)
}

// PurchaseResult is the buyer's state after a successful purchase.
type PurchaseResult struct {
	Success           bool     `json:"success"`
	Balance           int64    `json:"balance"`
	Experience        int64    `json:"experience"`
	PurchasedProducts []string `json:"purchased_products"`
}

// ProductService sells catalog items for coins.
type ProductService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the catalog and ledger repository.
	Repo ProductRepo

	// CoinsPerUSD converts prices to booked revenue.
	CoinsPerUSD int64
	// PurchaseXP is granted for every purchase.
	PurchaseXP int64

	locks keyedMutex
}

// NewProductService constructs a ProductService with 100 coins per USD and
// 50 XP per purchase.
func NewProductService(db *gorm.DB, r ProductRepo) *ProductService {
	return &ProductService{DB: db, Repo: r, CoinsPerUSD: 100, PurchaseXP: 50}
}

// List returns the catalog.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	items, err := s.Repo.ListProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

// Purchase sells productID to userID.
//
// Errors, in check order: ErrProductNotFound, ErrUserNotFound,
// ErrAlreadyOwned, ErrInsufficientBalance. Nothing is persisted on error.
func (s *ProductService) Purchase(ctx context.Context, productID, userID string) (*PurchaseResult, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Purchase",
		trace.WithAttributes(
			attribute.String("product.id", productID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	p, err := s.Repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	u, err := s.getUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if u.Owns(productID) {
		return nil, ErrAlreadyOwned
	}
	if u.Balance < p.Price {
		return nil, ErrInsufficientBalance
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Price > 0 {
			if err := s.Repo.DebitBalance(ctx, tx, userID, p.Price); err != nil {
				return err
			}
		}
		if err := s.Repo.AddPurchasedProduct(ctx, tx, userID, productID); err != nil {
			return err
		}
		desc := fmt.Sprintf("Purchase of %s", p.Name)
		if _, err := s.Repo.AppendTransaction(ctx, tx, userID, -p.Price, TxTypePurchase, desc); err != nil {
			return err
		}
		if _, err := s.Repo.RecordRevenue(ctx, tx, repo.RevenueSourcePurchase, s.revenueFor(p.Price)); err != nil {
			return err
		}
		if s.PurchaseXP != 0 {
			if err := s.Repo.AddExperience(ctx, tx, userID, s.PurchaseXP); err != nil {
				return err
			}
		}
		u, err = s.getUser(ctx, tx, userID)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrDuplicate):
		return nil, ErrAlreadyOwned
	case errors.Is(err, repo.ErrInsufficientFunds):
		return nil, ErrInsufficientBalance
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrUserNotFound):
		return nil, ErrUserNotFound
	default:
		span.RecordError(err)
		return nil, err
	}

	observability.BalanceDebits.WithLabelValues(TxTypePurchase).Inc()
	log.Info().
		Str("user_id", userID).
		Str("product_id", productID).
		Int64("price", p.Price).
		Msg("product purchased")

	owned := append([]string{}, u.PurchasedProducts...)
	return &PurchaseResult{
		Success:           true,
		Balance:           u.Balance,
		Experience:        u.Experience,
		PurchasedProducts: owned,
	}, nil
}

func (s *ProductService) revenueFor(price int64) decimal.Decimal {
	if s.CoinsPerUSD <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(price).Div(decimal.NewFromInt(s.CoinsPerUSD))
}

func (s *ProductService) getUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
