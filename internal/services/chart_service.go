// Package services – ChartService
//
// This file implements ChartService, which builds natal charts and sells
// their premium interpretation. Chart construction runs the full pipeline:
// birth moment resolution, ephemeris lookup, true solar time, house
// assignment and basic interpretation. The result is persisted together
// with an internal snapshot of the ephemeris output, from which premium
// text is later rendered without recomputing any astronomy.
//
// Premium unlock is serialized per chart and runs the debit, ledger entry,
// revenue record and unlock flag in one database transaction, so a user is
// charged at most once per chart.
//
// Observability: public methods are OpenTelemetry-instrumented and update
// the domain counters in package observability.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	"github.com/tbourn/astro-chart-backend/internal/interpret"
	"github.com/tbourn/astro-chart-backend/internal/observability"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/solartime"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Ledger entry types and revenue sources written by the services.
const (
	TxTypePremiumUnlock = "premium_unlock"
	TxTypePurchase      = "purchase"
)

// ChartRepo defines the chart persistence contract required by ChartService.
type ChartRepo interface {
	// CreateChart inserts a fully built chart.
	CreateChart(ctx context.Context, db *gorm.DB, c *domain.Chart) error

	// GetChart fetches a chart by id.
	GetChart(ctx context.Context, db *gorm.DB, id string) (*domain.Chart, error)

	// MarkPremiumUnlocked flips the premium flag if it is still false.
	MarkPremiumUnlocked(ctx context.Context, db *gorm.DB, id, userID, text string, at time.Time) error
}

// LedgerRepo defines the economy operations ChartService needs to charge
// for a premium unlock.
type LedgerRepo interface {
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	DebitBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error
	AppendTransaction(ctx context.Context, db *gorm.DB, userID string, amount int64, typ, description string) (*domain.Transaction, error)
	RecordRevenue(ctx context.Context, db *gorm.DB, source string, amount decimal.Decimal) (*domain.Revenue, error)
}

// ChartService builds, stores and unlocks natal charts.
type ChartService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo persists charts.
	Repo ChartRepo
	// Ledger charges users.
	Ledger LedgerRepo
	// Provider computes body positions and house cusps.
	Provider ephemeris.Provider
	// HouseSystem is recorded in each chart's snapshot.
	HouseSystem ephemeris.HouseSystem

	// UnlockCost is the premium price in coins.
	UnlockCost int64
	// UnlockRevenue is the USD revenue booked per unlock.
	UnlockRevenue decimal.Decimal

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	locks keyedMutex
}

// NewChartService constructs a ChartService with the default price
// (2000 coins, booked as 20.00 USD).
func NewChartService(db *gorm.DB, r ChartRepo, l LedgerRepo, p ephemeris.Provider) *ChartService {
	return &ChartService{
		DB:            db,
		Repo:          r,
		Ledger:        l,
		Provider:      p,
		HouseSystem:   ephemeris.Placidus,
		UnlockCost:    2000,
		UnlockRevenue: decimal.NewFromInt(20),
	}
}

func (s *ChartService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create computes a chart for in and persists it. Nothing is stored when
// any step fails.
func (s *ChartService) Create(ctx context.Context, in BirthInput) (*domain.Chart, error) {
	tr := otel.Tracer("services/ChartService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("birth.date", in.Date),
			attribute.String("birth.timezone", in.Timezone),
		),
	)
	defer span.End()

	c, err := s.Compute(ctx, in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.Repo.CreateChart(ctx, s.DB, c); err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.ChartsCreated.Inc()
	span.SetAttributes(attribute.String("chart.id", c.ID))
	return c, nil
}

// Compute builds a chart without persisting it. The returned chart has no
// ID; storage assigns one.
func (s *ChartService) Compute(ctx context.Context, in BirthInput) (*domain.Chart, error) {
	instant, err := ResolveBirthInstant(in)
	if err != nil {
		return nil, err
	}

	pos, err := s.Provider.Positions(ctx, instant, in.Latitude, in.Longitude)
	if err != nil {
		return nil, &ComputationError{Stage: "ephemeris", Err: err}
	}
	sun, ok := pos[ephemeris.Sun]
	if !ok {
		return nil, &ComputationError{Stage: "ephemeris", Err: fmt.Errorf("%w: %s", interpret.ErrMissingBody, ephemeris.Sun)}
	}

	// Solar time is display-only: placements use the civil instant.
	solar, err := solartime.Correct(instant, in.Longitude, sun.Longitude)
	if err != nil {
		return nil, &ComputationError{Stage: "solar_time", Err: err}
	}

	cusps, err := s.Provider.Houses(ctx, instant, in.Latitude, in.Longitude)
	if err != nil {
		return nil, &ComputationError{Stage: "houses", Err: err}
	}
	if len(cusps) != 12 {
		return nil, &ComputationError{Stage: "houses", Err: fmt.Errorf("got %d cusps, want 12", len(cusps))}
	}

	planets := make(map[string]domain.PlanetPlacement, len(ephemeris.ClassicalBodies))
	for _, b := range ephemeris.ClassicalBodies {
		p, ok := pos[b]
		if !ok {
			return nil, &ComputationError{Stage: "ephemeris", Err: fmt.Errorf("%w: %s", interpret.ErrMissingBody, b)}
		}
		planets[string(b)] = domain.PlanetPlacement{
			Sign:     p.Sign,
			Position: p.SignDegree,
			House:    ephemeris.HouseOf(p.Longitude, cusps),
		}
	}

	houses := make(map[string]domain.HouseCusp, 12)
	cuspLons := make([]float64, 12)
	for i, c := range cusps {
		houses[strconv.Itoa(i+1)] = domain.HouseCusp{Sign: c.Sign, Position: c.Longitude}
		cuspLons[i] = c.Longitude
	}

	basic, err := interpret.Basic(pos)
	if err != nil {
		return nil, &ComputationError{Stage: "interpretation", Err: err}
	}

	longs := make(map[string]float64, len(pos))
	for b, p := range pos {
		longs[string(b)] = p.Longitude
	}

	return &domain.Chart{
		BirthDate:           in.Date,
		BirthTime:           in.Time,
		Latitude:            in.Latitude,
		Longitude:           in.Longitude,
		Timezone:            in.Timezone,
		StandardTime:        solar.StandardClock(),
		SolarTime:           solar.SolarClock(),
		SolarInterpretation: solar.Interpretation(),
		Planets:             datatypes.NewJSONType(planets),
		Houses:              datatypes.NewJSONType(houses),
		BasicInterpretation: basic,
		Snapshot: datatypes.NewJSONType(domain.EphemerisSnapshot{
			Longitudes:  longs,
			Cusps:       cuspLons,
			HouseSystem: string(s.HouseSystem),
			InstantUTC:  instant,
		}),
	}, nil
}

// Get returns a stored chart or ErrChartNotFound.
func (s *ChartService) Get(ctx context.Context, id string) (*domain.Chart, error) {
	tr := otel.Tracer("services/ChartService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("chart.id", id)))
	defer span.End()

	c, err := s.Repo.GetChart(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChartNotFound
		}
		return nil, err
	}
	return c, nil
}

// GeneratePremium renders the premium interpretation of a stored chart. It
// is pure with respect to the stored snapshot and does not charge anyone.
func (s *ChartService) GeneratePremium(ctx context.Context, chartID string) (string, error) {
	c, err := s.Get(ctx, chartID)
	if err != nil {
		return "", err
	}
	return s.premiumText(ctx, c)
}

// premiumText renders from the snapshot. Charts stored without a snapshot
// are recomputed from their birth input.
func (s *ChartService) premiumText(ctx context.Context, c *domain.Chart) (string, error) {
	pos := PositionsFromSnapshot(c.Snapshot.Data())
	if len(pos) < len(ephemeris.ClassicalBodies) {
		in := BirthInput{Date: c.BirthDate, Time: c.BirthTime, Latitude: c.Latitude, Longitude: c.Longitude, Timezone: c.Timezone}
		instant, err := ResolveBirthInstant(in)
		if err != nil {
			return "", &ComputationError{Stage: "snapshot", Err: err}
		}
		pos, err = s.Provider.Positions(ctx, instant, c.Latitude, c.Longitude)
		if err != nil {
			return "", &ComputationError{Stage: "ephemeris", Err: err}
		}
	}
	text, err := interpret.Premium(pos)
	if err != nil {
		return "", &ComputationError{Stage: "interpretation", Err: err}
	}
	return text, nil
}

// PositionsFromSnapshot rebuilds Provider-style positions from a snapshot.
func PositionsFromSnapshot(snap domain.EphemerisSnapshot) map[ephemeris.Body]ephemeris.Position {
	out := make(map[ephemeris.Body]ephemeris.Position, len(snap.Longitudes))
	for name, lon := range snap.Longitudes {
		out[ephemeris.Body(name)] = ephemeris.PositionAt(lon)
	}
	return out
}

// errUnlockRace aborts the unlock transaction when another request flipped
// the flag first.
var errUnlockRace = errors.New("chart already unlocked")

// UnlockPremium charges userID the unlock cost and attaches the premium
// interpretation to the chart. A chart that is already unlocked is returned
// as is and nobody is charged.
//
// Errors: ErrChartNotFound, ErrUserNotFound, ErrInsufficientBalance, or a
// *ComputationError. On any error no balance, ledger or chart change is
// persisted.
func (s *ChartService) UnlockPremium(ctx context.Context, chartID, userID string) (*domain.Chart, error) {
	tr := otel.Tracer("services/ChartService")
	ctx, span := tr.Start(ctx, "UnlockPremium",
		trace.WithAttributes(
			attribute.String("chart.id", chartID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	unlock := s.locks.Lock(chartID)
	defer unlock()

	result := "error"
	defer func() { observability.PremiumUnlocks.WithLabelValues(result).Inc() }()

	c, err := s.Get(ctx, chartID)
	if err != nil {
		if errors.Is(err, ErrChartNotFound) {
			result = "not_found"
		}
		return nil, err
	}
	user, err := s.Ledger.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = "not_found"
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if c.IsPremiumUnlocked {
		result = "already_unlocked"
		return c, nil
	}
	if user.Balance < s.UnlockCost {
		result = "insufficient"
		return nil, ErrInsufficientBalance
	}

	text, err := s.premiumText(ctx, c)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	at := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.UnlockCost > 0 {
			if err := s.Ledger.DebitBalance(ctx, tx, userID, s.UnlockCost); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("Premium chart interpretation unlock for chart %s", chartID)
		if _, err := s.Ledger.AppendTransaction(ctx, tx, userID, -s.UnlockCost, TxTypePremiumUnlock, desc); err != nil {
			return err
		}
		if _, err := s.Ledger.RecordRevenue(ctx, tx, repo.RevenueSourcePremiumUnlock, s.UnlockRevenue); err != nil {
			return err
		}
		if err := s.Repo.MarkPremiumUnlocked(ctx, tx, chartID, userID, text, at); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return errUnlockRace
			}
			return err
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errUnlockRace):
		result = "already_unlocked"
		return s.Get(ctx, chartID)
	case errors.Is(err, repo.ErrInsufficientFunds):
		result = "insufficient"
		return nil, ErrInsufficientBalance
	case errors.Is(err, gorm.ErrRecordNotFound):
		result = "not_found"
		return nil, ErrUserNotFound
	default:
		span.RecordError(err)
		return nil, err
	}

	c.IsPremiumUnlocked = true
	c.PremiumInterpretation = &text
	c.UnlockedBy = &userID
	c.UnlockedAt = &at
	result = "unlocked"
	observability.BalanceDebits.WithLabelValues(TxTypePremiumUnlock).Inc()
	log.Info().
		Str("chart_id", chartID).
		Str("user_id", userID).
		Int64("cost", s.UnlockCost).
		Msg("premium interpretation unlocked")
	return c, nil
}
