// Reading and revenue HTTP handlers.
//
// This file exposes:
//   - POST /readings/{user_id}   (save a tarot spread)
//   - GET  /readings/{user_id}   (list, ETag support)
//   - GET  /revenue/summary      (income totals in an optional window)
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/astro-chart-backend/internal/utils"
)

// SaveReadingRequest is a drawn spread. Cards are stored as given.
type SaveReadingRequest struct {
	SpreadType string          `json:"spread_type" binding:"required" example:"three_card"`
	Cards      json.RawMessage `json:"cards" binding:"required" swaggertype:"array,object"`
}

// RevenueSummaryResponse totals ad and payment income. Amounts are decimal
// strings.
type RevenueSummaryResponse struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"     swaggertype:"string" example:"12.34"`
	AdRevenue        decimal.Decimal `json:"ad_revenue"        swaggertype:"string" example:"0.34"`
	PaymentRevenue   decimal.Decimal `json:"payment_revenue"   swaggertype:"string" example:"12"`
	TransactionCount int64           `json:"transaction_count" example:"42"`
}

// SaveReading godoc
// @ID          saveReading
// @Summary     Save a tarot reading
// @Tags        Readings
// @Accept      json
// @Produce     json
//
// @Param       user_id  path  string  true  "User ID"
// @Param       body     body  handlers.SaveReadingRequest  true  "Spread and cards"
//
// @Success     200  {object}  domain.Reading
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /readings/{user_id} [post]
func (h *Handlers) SaveReading(c *gin.Context) {
	var req SaveReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "spread_type and cards required")
		return
	}
	r, err := h.readings.Save(c.Request.Context(), c.Param("user_id"), req.SpreadType, req.Cards)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListReadings godoc
// @ID          listReadings
// @Summary     List a user's readings
// @Description Returns every saved reading, oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Readings
// @Produce     json
//
// @Param       user_id        path    string  true   "User ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   domain.Reading
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /readings/{user_id} [get]
func (h *Handlers) ListReadings(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("user_id")

	if count, latest, err := h.readings.Stats(ctx, uid); err == nil && count > 0 {
		if notModified(c, fmt.Sprintf(`W/"readings:%s:%d:%d"`, uid, count, unixOrZero(latest))) {
			return
		}
	}

	items, err := h.readings.List(ctx, uid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// RevenueSummary godoc
// @ID          revenueSummary
// @Summary     Revenue totals
// @Description Sums ad and payment revenue created within [start_date, end_date]. Both bounds are optional RFC 3339 timestamps.
// @Tags        Revenue
// @Produce     json
//
// @Param       start_date  query  string  false  "Inclusive lower bound"  format(date-time)
// @Param       end_date    query  string  false  "Inclusive upper bound"  format(date-time)
//
// @Success     200  {object}  handlers.RevenueSummaryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /revenue/summary [get]
func (h *Handlers) RevenueSummary(c *gin.Context) {
	from, err := utils.ParseTimeOpt(c.Query("start_date"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start_date must be RFC 3339")
		return
	}
	to, err := utils.ParseTimeOpt(c.Query("end_date"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "end_date must be RFC 3339")
		return
	}

	sum, err := h.revenue.Summary(c.Request.Context(), from, to)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, RevenueSummaryResponse{
		TotalRevenue:     sum.Total,
		AdRevenue:        sum.Ad,
		PaymentRevenue:   sum.Payment,
		TransactionCount: sum.Count,
	})
}
