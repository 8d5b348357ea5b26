// Package handlers exposes the chart and coin-economy REST endpoints.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services through the interfaces below, and translate results
// into HTTP responses, including conditional (ETag) and idempotent replays.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
	"github.com/tbourn/astro-chart-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChartService creates charts and sells the premium interpretation.
type ChartService interface {
	Create(ctx context.Context, in services.BirthInput) (*domain.Chart, error)
	Get(ctx context.Context, id string) (*domain.Chart, error)
	UnlockPremium(ctx context.Context, chartID, userID string) (*domain.Chart, error)
}

// UserService manages economy accounts and their progression.
type UserService interface {
	Create(ctx context.Context, username string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetLanguage(ctx context.Context, id, lang string) (*domain.User, error)
	Level(ctx context.Context, id string) (int64, services.LevelInfo, error)
	AddExperience(ctx context.Context, id string, xp int64) (int64, services.LevelInfo, error)
}

// WalletService moves coins and exposes the ledger.
type WalletService interface {
	Add(ctx context.Context, userID string, amount int64, source string) (*domain.User, error)
	Deduct(ctx context.Context, userID string, amount int64, description string) (*domain.User, error)
	TransactionsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error)
}

// ProductService lists and sells catalog items.
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Purchase(ctx context.Context, productID, userID string) (*services.PurchaseResult, error)
}

// ReadingService stores tarot readings.
type ReadingService interface {
	Save(ctx context.Context, userID, spreadType string, cards json.RawMessage) (*domain.Reading, error)
	List(ctx context.Context, userID string) ([]domain.Reading, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// RevenueService reports income.
type RevenueService interface {
	Summary(ctx context.Context, from, to *time.Time) (repo.RevenueTotals, error)
}

//
// Handler wiring
//

// Services bundles the application services used by Handlers.
type Services struct {
	Charts   ChartService
	Users    UserService
	Wallet   WalletService
	Products ProductService
	Readings ReadingService
	Revenue  RevenueService
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	charts   ChartService
	users    UserService
	wallet   WalletService
	products ProductService
	readings ReadingService
	revenue  RevenueService

	// IdempotencyTTL is how long a recorded Idempotency-Key replays.
	IdempotencyTTL time.Duration

	now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		charts:         s.Charts,
		users:          s.Users,
		wallet:         s.Wallet,
		products:       s.Products,
		readings:       s.Readings,
		revenue:        s.Revenue,
		IdempotencyTTL: 24 * time.Hour,
		now:            time.Now,
	}
}

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// notModified sets a weak ETag and reports whether If-None-Match matched it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
