// Wallet HTTP handlers.
//
// This file exposes REST endpoints for coin balances and the ledger:
//   - POST /users/{id}/balance/add?amount=N&source=S
//   - POST /users/{id}/balance/deduct?amount=N&description=D
//   - GET  /users/{id}/transactions   (paginated, ETag support)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
	"github.com/tbourn/astro-chart-backend/internal/utils"
)

// ListTransactionsResponse wraps a page of ledger entries.
type ListTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}

// coinsQuery reads a strictly positive coin amount from the query string.
func coinsQuery(c *gin.Context, name string) (int64, bool) {
	n, valid := utils.ParseCoins(c.Query(name))
	if !valid || n <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

// AddBalance godoc
// @ID          addBalance
// @Summary     Credit coins
// @Description Credits amount coins. The ledger entry type is the source; sources "payment" and "ad" also book revenue.
// @Tags        Wallet
// @Produce     json
//
// @Param       id      path   string  true  "User ID"
// @Param       amount  query  int     true  "Coins to add"  minimum(1)
// @Param       source  query  string  true  "Where the coins came from"  example(payment)
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/balance/add [post]
func (h *Handlers) AddBalance(c *gin.Context) {
	amount, valid := coinsQuery(c, "amount")
	if !valid {
		return
	}
	u, err := h.wallet.Add(c.Request.Context(), c.Param("id"), amount, c.Query("source"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeductBalance godoc
// @ID          deductBalance
// @Summary     Debit coins
// @Description Debits amount coins with a "purchase" ledger entry. Fails with 400 insufficient_balance when the balance is too low.
// @Tags        Wallet
// @Produce     json
//
// @Param       id           path   string  true   "User ID"
// @Param       amount       query  int     true   "Coins to deduct"  minimum(1)
// @Param       description  query  string  false  "Ledger description"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or insufficient balance"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/balance/deduct [post]
func (h *Handlers) DeductBalance(c *gin.Context) {
	amount, valid := coinsQuery(c, "amount")
	if !valid {
		return
	}
	u, err := h.wallet.Deduct(c.Request.Context(), c.Param("id"), amount, c.Query("description"))
	if errors.Is(err, services.ErrInsufficientBalance) {
		// This generic endpoint has always answered 400 here.
		fail(c, http.StatusBadRequest, ErrCodeInsufficientBalance, "insufficient balance")
		return
	}
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListTransactions godoc
// @ID          listTransactions
// @Summary     List ledger entries (paginated)
// @Description Returns a page of the user's ledger, oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Wallet
// @Produce     json
//
// @Param       id             path    string  true   "User ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListTransactionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/transactions [get]
func (h *Handlers) ListTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("id")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, isSvc := h.wallet.(*services.WalletService); isSvc && svc.DB != nil {
		if count, latest, err := repo.TransactionsStats(ctx, svc.DB, uid); err == nil && count > 0 {
			etag := fmt.Sprintf(`W/"tx:%s:%d:%d:%d:%d"`, uid, count, unixOrZero(latest), page, pageSize)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.wallet.TransactionsPage(ctx, uid, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListTransactionsResponse{
		Transactions: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}
