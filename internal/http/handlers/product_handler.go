// Product HTTP handlers.
//
// This file exposes the catalog:
//   - GET  /products
//   - POST /products/{id}/purchase   (supports Idempotency-Key)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/astro-chart-backend/internal/http/middleware"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

// PurchaseRequest names the buyer.
type PurchaseRequest struct {
	UserID string `json:"user_id" binding:"required" example:"test_user_123"`
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List the catalog
// @Tags        Products
// @Produce     json
//
// @Success     200  {array}   domain.Product
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	items, err := h.products.List(c.Request.Context())
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// PurchaseProduct godoc
// @ID          purchaseProduct
// @Summary     Buy a product
// @Description Debits the product price, records the ledger entry and revenue, and grants experience.
// @Description A retry with a recorded Idempotency-Key returns the buyer's current state without charging.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Product ID"  example(1)
// @Param       body             body    handlers.PurchaseRequest  true  "Buyer"
//
// @Success     200  {object}  services.PurchaseResult
// @Header      200  {string}  Idempotency-Replayed  "true when served from a recorded key"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or already owned"
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient balance"
// @Failure     404  {object}  handlers.ErrorResponse  "Product or user not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/{id}/purchase [post]
func (h *Handlers) PurchaseProduct(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("id")

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id required")
		return
	}
	userID := strings.TrimSpace(req.UserID)

	db := idempotencyDB(h.products)
	key, _ := middleware.GetIdempotencyKey(c)
	if h.replayed(ctx, db, userID, productID, key) {
		if u, err := h.users.Get(ctx, userID); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, services.PurchaseResult{
				Success:           true,
				Balance:           u.Balance,
				Experience:        u.Experience,
				PurchasedProducts: append([]string{}, u.PurchasedProducts...),
			})
			return
		}
	}

	res, err := h.products.Purchase(ctx, productID, userID)
	if err != nil {
		failService(c, err, ErrCodePurchaseFailed)
		return
	}
	h.remember(c, db, userID, productID, key, productID)
	ok(c, http.StatusOK, res)
}
