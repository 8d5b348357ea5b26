package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

func TestUsers_CreateGetAndLookup(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/users", map[string]string{"username": "  luna  "})
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	u := decode[domain.User](t, w)
	if u.ID == "" || u.Username != "luna" || u.Balance != 0 || u.Experience != 0 || u.Language != "en" {
		t.Fatalf("new user = %+v", u)
	}

	// Same username returns the same account.
	again := decode[domain.User](t, e.do(http.MethodPost, "/users", map[string]string{"username": "luna"}))
	if again.ID != u.ID {
		t.Fatalf("duplicate username created %s; want %s", again.ID, u.ID)
	}

	if got := decode[domain.User](t, e.do(http.MethodGet, "/users/"+u.ID, nil)); got.Username != "luna" {
		t.Fatalf("get = %+v", got)
	}
	if got := decode[domain.User](t, e.do(http.MethodGet, "/users/by-username/luna", nil)); got.ID != u.ID {
		t.Fatalf("by username = %+v", got)
	}

	expectError(t, e.do(http.MethodGet, "/users/nobody", nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodGet, "/users/by-username/nobody", nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodPost, "/users", map[string]string{"username": "   "}), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestUsers_LanguageAndLevel(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "u1", 0)

	w := e.do(http.MethodPut, "/users/u1/language?language=zh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("language: %d %s", w.Code, w.Body.String())
	}
	lr := decode[LanguageResponse](t, w)
	if !lr.Success || lr.Language != "zh" || lr.User == nil || lr.User.Language != "zh" {
		t.Fatalf("language response = %+v", lr)
	}
	expectError(t, e.do(http.MethodPut, "/users/u1/language?language=fr", nil), http.StatusBadRequest, ErrCodeInvalidLanguage)
	expectError(t, e.do(http.MethodPut, "/users/ghost/language?language=en", nil), http.StatusNotFound, ErrCodeNotFound)

	w = e.do(http.MethodPost, "/users/u1/experience?xp_amount=600", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("experience: %d %s", w.Code, w.Body.String())
	}
	lv := decode[LevelResponse](t, w)
	if lv.Experience != 600 || lv.LevelInfo.Level != 2 || lv.LevelInfo.NextLevel != 1000 {
		t.Fatalf("level = %+v", lv)
	}
	if lv.LevelInfo.Title != "普通塔罗师" || lv.LevelInfo.TitleEN != "Regular Tarot Reader" {
		t.Fatalf("titles = %q / %q", lv.LevelInfo.Title, lv.LevelInfo.TitleEN)
	}

	lv = decode[LevelResponse](t, e.do(http.MethodGet, "/users/u1/level", nil))
	if lv.Experience != 600 || lv.LevelInfo.Level != 2 {
		t.Fatalf("get level = %+v", lv)
	}

	expectError(t, e.do(http.MethodPost, "/users/u1/experience", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/users/u1/experience?xp_amount=-601", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodGet, "/users/ghost/level", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestWallet_AddDeductAndLedger(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "w1", 0)

	w := e.do(http.MethodPost, "/users/w1/balance/add?amount=500&source=payment", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	if u := decode[domain.User](t, w); u.Balance != 500 {
		t.Fatalf("balance = %d", u.Balance)
	}

	w = e.do(http.MethodPost, "/users/w1/balance/deduct?amount=120&description=Spread%20unlock", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("deduct: %d %s", w.Code, w.Body.String())
	}
	if u := decode[domain.User](t, w); u.Balance != 380 {
		t.Fatalf("balance = %d", u.Balance)
	}

	// The generic deduct endpoint reports a short balance as 400.
	expectError(t, e.do(http.MethodPost, "/users/w1/balance/deduct?amount=381", nil), http.StatusBadRequest, ErrCodeInsufficientBalance)
	if b := e.balance(t, "w1"); b != 380 {
		t.Fatalf("balance changed on failure: %d", b)
	}

	expectError(t, e.do(http.MethodPost, "/users/w1/balance/add?amount=0&source=ad", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/users/w1/balance/add?amount=ten&source=ad", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/users/w1/balance/add?amount=5", nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/users/ghost/balance/add?amount=5&source=ad", nil), http.StatusNotFound, ErrCodeNotFound)

	w = e.do(http.MethodGet, "/users/w1/transactions?page=1&page_size=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("transactions: %d", w.Code)
	}
	page := decode[ListTransactionsResponse](t, w)
	if len(page.Transactions) != 1 || page.Pagination.Total != 2 || !page.Pagination.HasNext || page.Pagination.TotalPages != 2 {
		t.Fatalf("page = %+v", page)
	}
	first := page.Transactions[0]
	if first.Amount != 500 || first.Type != "payment" || first.Description != "Added 500 coins from payment" {
		t.Fatalf("first entry = %+v", first)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	if w := e.do(http.MethodGet, "/users/w1/transactions?page=1&page_size=1", nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET = %d; want 304", w.Code)
	}
	second := decode[ListTransactionsResponse](t, e.do(http.MethodGet, "/users/w1/transactions?page=2&page_size=1", nil, "If-None-Match", etag))
	if len(second.Transactions) != 1 || second.Transactions[0].Amount != -120 || second.Transactions[0].Type != "purchase" {
		t.Fatalf("page 2 = %+v", second)
	}

	expectError(t, e.do(http.MethodGet, "/users/ghost/transactions", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestProducts_ListAndPurchase(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "buyer", 1000)
	e.seedUser(t, "broke", 10)

	items := decode[[]domain.Product](t, e.do(http.MethodGet, "/products", nil))
	if len(items) != 2 {
		t.Fatalf("catalog = %+v", items)
	}

	w := e.do(http.MethodPost, "/products/2/purchase", map[string]string{"user_id": "buyer"})
	if w.Code != http.StatusOK {
		t.Fatalf("purchase: %d %s", w.Code, w.Body.String())
	}
	res := decode[services.PurchaseResult](t, w)
	if !res.Success || res.Balance != 951 || res.Experience != 50 || len(res.PurchasedProducts) != 1 || res.PurchasedProducts[0] != "2" {
		t.Fatalf("result = %+v", res)
	}

	expectError(t, e.do(http.MethodPost, "/products/2/purchase", map[string]string{"user_id": "buyer"}), http.StatusBadRequest, ErrCodeAlreadyOwned)
	expectError(t, e.do(http.MethodPost, "/products/1/purchase", map[string]string{"user_id": "broke"}), http.StatusPaymentRequired, ErrCodeInsufficientBalance)
	expectError(t, e.do(http.MethodPost, "/products/9/purchase", map[string]string{"user_id": "buyer"}), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodPost, "/products/1/purchase", map[string]string{"user_id": "ghost"}), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodPost, "/products/1/purchase", "{}"), http.StatusBadRequest, ErrCodeBadRequest)

	if b := e.balance(t, "broke"); b != 10 {
		t.Fatalf("broke balance = %d", b)
	}
}

func TestProducts_PurchaseIdempotencyKeyReplays(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "buyer", 1000)
	body := map[string]string{"user_id": "buyer"}

	w := e.do(http.MethodPost, "/products/1/purchase", body, "Idempotency-Key", "order-7")
	if w.Code != http.StatusOK {
		t.Fatalf("purchase: %d %s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodPost, "/products/1/purchase", body, "Idempotency-Key", "order-7")
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("retry: %d replayed=%q body=%s", w.Code, w.Header().Get("Idempotency-Replayed"), w.Body.String())
	}
	if res := decode[services.PurchaseResult](t, w); res.Balance != 901 || res.Experience != 50 {
		t.Fatalf("replayed result = %+v", res)
	}
	if b := e.balance(t, "buyer"); b != 901 {
		t.Fatalf("charged twice: balance %d", b)
	}
}

func TestReadings_SaveListAndETag(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "r1", 0)

	cards := `[{"name":"The Star","reversed":false},{"name":"The Moon","reversed":true}]`
	w := e.do(http.MethodPost, "/readings/r1", `{"spread_type":"two_card","cards":`+cards+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: %d %s", w.Code, w.Body.String())
	}
	saved := decode[domain.Reading](t, w)
	if saved.ID == "" || saved.SpreadType != "two_card" || saved.UserID != "r1" {
		t.Fatalf("saved = %+v", saved)
	}

	w = e.do(http.MethodGet, "/readings/r1", nil)
	list := decode[[]domain.Reading](t, w)
	if len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("list = %+v", list)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	if w := e.do(http.MethodGet, "/readings/r1", nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET = %d; want 304", w.Code)
	}

	expectError(t, e.do(http.MethodPost, "/readings/r1", `{"spread_type":"x","cards":{"not":"array"}}`), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/readings/r1", `{"cards":[]}`), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(http.MethodPost, "/readings/ghost", `{"spread_type":"x","cards":[]}`), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodGet, "/readings/ghost", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestRevenueSummary(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for _, r := range []struct{ src, amt string }{
		{repo.RevenueSourcePayment, "50"},
		{repo.RevenueSourceAd, "0.01"},
		{repo.RevenueSourcePurchase, "0.99"},
	} {
		if _, err := repo.RecordRevenue(ctx, e.db, r.src, decimal.RequireFromString(r.amt)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	w := e.do(http.MethodGet, "/revenue/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", w.Code, w.Body.String())
	}
	sum := decode[RevenueSummaryResponse](t, w)
	if !sum.TotalRevenue.Equal(decimal.RequireFromString("50.01")) ||
		!sum.AdRevenue.Equal(decimal.RequireFromString("0.01")) ||
		!sum.PaymentRevenue.Equal(decimal.NewFromInt(50)) ||
		sum.TransactionCount != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	empty := decode[RevenueSummaryResponse](t, e.do(http.MethodGet, "/revenue/summary?start_date="+future, nil))
	if !empty.TotalRevenue.IsZero() || empty.TransactionCount != 0 {
		t.Fatalf("future window = %+v", empty)
	}

	expectError(t, e.do(http.MethodGet, "/revenue/summary?start_date=yesterday", nil), http.StatusBadRequest, ErrCodeBadRequest)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	expectError(t, e.do(http.MethodGet, "/revenue/summary?start_date="+future+"&end_date="+past, nil), http.StatusBadRequest, ErrCodeBadRequest)
}
