package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	"github.com/tbourn/astro-chart-backend/internal/http/middleware"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

// testEnv is a fully wired API over a private in-memory database.
type testEnv struct {
	db *gorm.DB
	h  *Handlers
	r  *gin.Engine
}

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := repo.SeedProducts(context.Background(), db); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	store := repo.Store{}

	h := New(Services{
		Charts:   services.NewChartService(db, store, store, ephemeris.NewMeeusProvider(ephemeris.Placidus)),
		Users:    services.NewUserService(db, store),
		Wallet:   services.NewWalletService(db, store),
		Products: services.NewProductService(db, store),
		Readings: services.NewReadingService(db, store),
		Revenue:  services.NewRevenueService(db, store),
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/charts/create", h.CreateChart)
	r.GET("/charts/:id", h.GetChart)
	r.POST("/charts/:id/unlock-premium", h.UnlockPremium)
	r.POST("/users", h.CreateUser)
	r.GET("/users/by-username/:username", h.GetUserByUsername)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id/language", h.UpdateLanguage)
	r.GET("/users/:id/level", h.GetLevel)
	r.POST("/users/:id/experience", h.AddExperience)
	r.POST("/users/:id/balance/add", h.AddBalance)
	r.POST("/users/:id/balance/deduct", h.DeductBalance)
	r.GET("/users/:id/transactions", h.ListTransactions)
	r.GET("/products", h.ListProducts)
	r.POST("/products/:id/purchase", h.PurchaseProduct)
	r.POST("/readings/:user_id", h.SaveReading)
	r.GET("/readings/:user_id", h.ListReadings)
	r.GET("/revenue/summary", h.RevenueSummary)

	return &testEnv{db: db, h: h, r: r}
}

// do sends a request. body may be nil, a string, or a value to encode.
func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedUser(t *testing.T, id string, balance int64) {
	t.Helper()
	u := &domain.User{ID: id, Username: "user-" + id, Balance: balance, Language: "en", PurchasedProducts: []string{}}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (e *testEnv) balance(t *testing.T, id string) int64 {
	t.Helper()
	u, err := repo.GetUser(context.Background(), e.db, id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Balance
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
	if got := decode[ErrorResponse](t, w); got.Code != code {
		t.Fatalf("code = %q; want %q", got.Code, code)
	}
}

var nyBirth = map[string]any{
	"birth_date": "1990-01-01",
	"birth_time": "12:00",
	"latitude":   40.7128,
	"longitude":  -74.0060,
	"timezone":   "America/New_York",
}

func (e *testEnv) createChart(t *testing.T) ChartResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/charts/create", nyBirth)
	if w.Code != http.StatusOK {
		t.Fatalf("create chart: %d %s", w.Code, w.Body.String())
	}
	return decode[ChartResponse](t, w)
}
