// Package services – WalletService
//
// This file implements WalletService, which credits and debits coin
// balances. Every balance change is written together with its ledger entry
// in one database transaction, and credits from paid sources also book
// real-money revenue.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const maxSourceLen = 32

// WalletRepo defines the ledger contract required by WalletService.
type WalletRepo interface {
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	CreditBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error
	DebitBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error
	AppendTransaction(ctx context.Context, db *gorm.DB, userID string, amount int64, typ, description string) (*domain.Transaction, error)
	RecordRevenue(ctx context.Context, db *gorm.DB, source string, amount decimal.Decimal) (*domain.Revenue, error)

	// CountTransactions returns the total number of ledger entries for pagination.
	CountTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListTransactionsPage returns a page of ledger entries, oldest first.
	ListTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transaction, error)
}

// WalletService moves coins in and out of user balances.
type WalletService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the ledger repository.
	Repo WalletRepo

	// PaymentRevenueRate is the USD booked per coin bought with source "payment".
	PaymentRevenueRate decimal.Decimal
	// AdRevenue is the USD booked per credit with source "ad".
	AdRevenue decimal.Decimal
}

// NewWalletService constructs a WalletService with the default revenue
// rates: 0.10 USD per paid coin and 0.01 USD per ad reward.
func NewWalletService(db *gorm.DB, r WalletRepo) *WalletService {
	return &WalletService{
		DB:                 db,
		Repo:               r,
		PaymentRevenueRate: decimal.RequireFromString("0.1"),
		AdRevenue:          decimal.RequireFromString("0.01"),
	}
}

// Add credits amount coins from source. The ledger entry's type is the
// source itself. Sources "payment" and "ad" also book revenue.
func (s *WalletService) Add(ctx context.Context, userID string, amount int64, source string) (*domain.User, error) {
	tr := otel.Tracer("services/WalletService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("amount", amount),
			attribute.String("source", source),
		),
	)
	defer span.End()

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	source = strings.TrimSpace(source)
	if source == "" || len(source) > maxSourceLen {
		return nil, ErrInvalidSource
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.CreditBalance(ctx, tx, userID, amount); err != nil {
			return err
		}
		desc := fmt.Sprintf("Added %d coins from %s", amount, source)
		if _, err := s.Repo.AppendTransaction(ctx, tx, userID, amount, source, desc); err != nil {
			return err
		}
		if rev, ok := s.revenueFor(source, amount); ok {
			if _, err := s.Repo.RecordRevenue(ctx, tx, source, rev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return s.user(ctx, userID)
}

func (s *WalletService) revenueFor(source string, amount int64) (decimal.Decimal, bool) {
	switch source {
	case repo.RevenueSourcePayment:
		return s.PaymentRevenueRate.Mul(decimal.NewFromInt(amount)), true
	case repo.RevenueSourceAd:
		return s.AdRevenue, true
	}
	return decimal.Zero, false
}

// Deduct debits amount coins and records a "purchase" ledger entry with the
// given description. Nothing changes when the balance is too low.
func (s *WalletService) Deduct(ctx context.Context, userID string, amount int64, description string) (*domain.User, error) {
	tr := otel.Tracer("services/WalletService")
	ctx, span := tr.Start(ctx, "Deduct",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("amount", amount),
		),
	)
	defer span.End()

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Deducted %d coins", amount)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.DebitBalance(ctx, tx, userID, amount); err != nil {
			return err
		}
		_, err := s.Repo.AppendTransaction(ctx, tx, userID, -amount, TxTypePurchase, description)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, repo.ErrInsufficientFunds):
		return nil, ErrInsufficientBalance
	default:
		span.RecordError(err)
		return nil, err
	}

	observability.BalanceDebits.WithLabelValues(TxTypePurchase).Inc()
	log.Debug().Str("user_id", userID).Int64("amount", amount).Msg("balance deducted")
	return s.user(ctx, userID)
}

// TransactionsPage returns a page of the user's ledger, oldest first, and
// the total number of entries. Invalid page values fall back to defaults.
func (s *WalletService) TransactionsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Transaction{}, 0, nil
	}

	items, err := s.Repo.ListTransactionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

func (s *WalletService) user(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
