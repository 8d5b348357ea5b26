// Chart HTTP handlers.
//
// This file exposes REST endpoints for natal charts:
//   - POST /charts/create              (compute and store a chart)
//   - GET  /charts/{id}                (fetch a stored chart)
//   - POST /charts/{id}/unlock-premium (spend coins on the premium reading)
//
// Unlocking supports Idempotency-Key: a retry with a recorded key for the
// same user and chart returns the chart as it is now, with
// `Idempotency-Replayed: true`, and charges nothing.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/http/middleware"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

//
// DTOs
//

// CreateChartRequest is the birth data of the chart to compute.
type CreateChartRequest struct {
	BirthDate string   `json:"birth_date" binding:"required" example:"1990-01-01"`
	BirthTime string   `json:"birth_time" binding:"required" example:"12:00"`
	Latitude  *float64 `json:"latitude"   binding:"required" example:"40.7128"`
	Longitude *float64 `json:"longitude"  binding:"required" example:"-74.006"`
	Timezone  string   `json:"timezone"   binding:"required" example:"America/New_York"`
}

// UnlockPremiumRequest names the user paying for the premium reading.
type UnlockPremiumRequest struct {
	UserID string `json:"user_id" binding:"required" example:"test_user_123"`
}

// ChartResponse is the public view of a chart. The internal ephemeris
// snapshot is never included.
type ChartResponse struct {
	ID                    string                            `json:"id"                     example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Date                  string                            `json:"date"                   example:"1990-01-01"`
	Time                  string                            `json:"time"                   example:"12:00"`
	Latitude              float64                           `json:"latitude"               example:"40.7128"`
	Longitude             float64                           `json:"longitude"              example:"-74.006"`
	Planets               map[string]domain.PlanetPlacement `json:"planets"`
	Houses                map[string]domain.HouseCusp       `json:"houses"`
	BasicInterpretation   string                            `json:"basic_interpretation"`
	IsPremiumUnlocked     bool                              `json:"is_premium_unlocked"`
	PremiumInterpretation *string                           `json:"premium_interpretation"`
	StandardTime          string                            `json:"standard_time"          example:"17:00:00"`
	SolarTime             string                            `json:"solar_time"             example:"12:00:51"`
	SolarInterpretation   string                            `json:"solar_interpretation"`
}

func toChartResponse(c *domain.Chart) ChartResponse {
	return ChartResponse{
		ID:                    c.ID,
		Date:                  c.BirthDate,
		Time:                  c.BirthTime,
		Latitude:              c.Latitude,
		Longitude:             c.Longitude,
		Planets:               c.Planets.Data(),
		Houses:                c.Houses.Data(),
		BasicInterpretation:   c.BasicInterpretation,
		IsPremiumUnlocked:     c.IsPremiumUnlocked,
		PremiumInterpretation: c.PremiumInterpretation,
		StandardTime:          c.StandardTime,
		SolarTime:             c.SolarTime,
		SolarInterpretation:   c.SolarInterpretation,
	}
}

//
// Idempotency helpers
//

// idempotencyDB returns the database backing svc when it is one of the
// concrete services, so records can be kept next to the ledger.
func idempotencyDB(svc any) *gorm.DB {
	switch s := svc.(type) {
	case *services.ChartService:
		return s.DB
	case *services.ProductService:
		return s.DB
	}
	return nil
}

// replayed reports whether a live record exists for (userID, resourceID, key).
func (h *Handlers) replayed(ctx context.Context, db *gorm.DB, userID, resourceID, key string) bool {
	if db == nil || key == "" {
		return false
	}
	rec, err := repo.GetIdempotency(ctx, db, userID, resourceID, key, h.now().UTC())
	return err == nil && rec != nil
}

// remember records a completed charge. Failures only cost the replay, so
// they are logged and ignored.
func (h *Handlers) remember(c *gin.Context, db *gorm.DB, userID, resourceID, key, resultID string) {
	if db == nil || key == "" {
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), db, userID, resourceID, key, resultID, http.StatusOK, h.IdempotencyTTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}

//
// Handlers
//

// CreateChart godoc
// @ID          createChart
// @Summary     Compute a natal chart
// @Description Computes planet placements, houses, true solar time and the basic interpretation for a birth moment, and stores the chart.
// @Tags        Charts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateChartRequest  true  "Birth data"
//
// @Success     200  {object}  handlers.ChartResponse
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid format, coordinates, timezone or local time"
// @Failure     500  {object}  handlers.ErrorResponse  "Computation failed"
// @Router      /charts/create [post]
func (h *Handlers) CreateChart(c *gin.Context) {
	var req CreateChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, "birth_date, birth_time, latitude, longitude and timezone are required")
		return
	}

	chart, err := h.charts.Create(c.Request.Context(), services.BirthInput{
		Date:      strings.TrimSpace(req.BirthDate),
		Time:      strings.TrimSpace(req.BirthTime),
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Timezone:  strings.TrimSpace(req.Timezone),
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusOK, toChartResponse(chart))
}

// GetChart godoc
// @ID          getChart
// @Summary     Get a chart
// @Tags        Charts
// @Produce     json
//
// @Param       id  path  string  true  "Chart ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ChartResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Chart not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /charts/{id} [get]
func (h *Handlers) GetChart(c *gin.Context) {
	chart, err := h.charts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, toChartResponse(chart))
}

// UnlockPremium godoc
// @ID          unlockPremium
// @Summary     Unlock the premium interpretation
// @Description Charges the user the unlock cost (2000 coins by default) and returns the chart with its premium interpretation.
// @Description A chart that is already unlocked is returned without charging. Supports Idempotency-Key.
// @Tags        Charts
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Chart ID (UUID)"  format(uuid)
// @Param       body             body    handlers.UnlockPremiumRequest  true  "Paying user"
//
// @Success     200  {object}  handlers.ChartResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a recorded key"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "Insufficient balance"
// @Failure     404  {object}  handlers.ErrorResponse  "Chart or user not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /charts/{id}/unlock-premium [post]
func (h *Handlers) UnlockPremium(c *gin.Context) {
	ctx := c.Request.Context()
	chartID := c.Param("id")

	var req UnlockPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id required")
		return
	}
	userID := strings.TrimSpace(req.UserID)

	db := idempotencyDB(h.charts)
	key, _ := middleware.GetIdempotencyKey(c)
	if h.replayed(ctx, db, userID, chartID, key) {
		if chart, err := h.charts.Get(ctx, chartID); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, toChartResponse(chart))
			return
		}
	}

	chart, err := h.charts.UnlockPremium(ctx, chartID, userID)
	if err != nil {
		failService(c, err, ErrCodeUnlockFailed)
		return
	}
	h.remember(c, db, userID, chartID, key, chart.ID)
	ok(c, http.StatusOK, toChartResponse(chart))
}
