package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/repo"
)

// RevenueRepo aggregates booked revenue.
type RevenueRepo interface {
	SummarizeRevenue(ctx context.Context, db *gorm.DB, from, to *time.Time) (repo.RevenueTotals, error)
}

// RevenueService reports real-money income.
type RevenueService struct {
	DB   *gorm.DB
	Repo RevenueRepo
}

// NewRevenueService constructs a RevenueService.
func NewRevenueService(db *gorm.DB, r RevenueRepo) *RevenueService {
	return &RevenueService{DB: db, Repo: r}
}

// Summary totals revenue booked within [from, to]. Nil bounds are open.
func (s *RevenueService) Summary(ctx context.Context, from, to *time.Time) (repo.RevenueTotals, error) {
	if from != nil && to != nil && to.Before(*from) {
		return repo.RevenueTotals{}, ErrInvalidDateRange
	}
	return s.Repo.SummarizeRevenue(ctx, s.DB, from, to)
}
