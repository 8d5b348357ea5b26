// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file records real-money revenue and aggregates it.
package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// Revenue sources.
const (
	RevenueSourceAd            = "ad"
	RevenueSourcePayment       = "payment"
	RevenueSourcePurchase      = "purchase"
	RevenueSourcePremiumUnlock = "premium_unlock"
)

// RevenueTotals summarises revenue rows within a time window. Total only
// includes ad and payment income; Count covers every source.
type RevenueTotals struct {
	Total   decimal.Decimal
	Ad      decimal.Decimal
	Payment decimal.Decimal
	Count   int64
}

// RecordRevenue appends a revenue row.
func RecordRevenue(ctx context.Context, db *gorm.DB, source string, amount decimal.Decimal) (*domain.Revenue, error) {
	r := &domain.Revenue{
		ID:        nextID(),
		Source:    source,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// SummarizeRevenue totals revenue created within [from, to]. Nil bounds are
// open. Amounts are summed as decimals in Go; SQLite would sum them as
// floats.
func SummarizeRevenue(ctx context.Context, db *gorm.DB, from, to *time.Time) (RevenueTotals, error) {
	q := db.WithContext(ctx).Model(&domain.Revenue{})
	if from != nil {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("created_at <= ?", to.UTC())
	}

	var rows []domain.Revenue
	if err := q.Find(&rows).Error; err != nil {
		return RevenueTotals{}, err
	}

	out := RevenueTotals{Total: decimal.Zero, Ad: decimal.Zero, Payment: decimal.Zero, Count: int64(len(rows))}
	for _, r := range rows {
		switch r.Source {
		case RevenueSourceAd:
			out.Ad = out.Ad.Add(r.Amount)
		case RevenueSourcePayment:
			out.Payment = out.Payment.Add(r.Amount)
		}
	}
	out.Total = out.Ad.Add(out.Payment)
	return out, nil
}
