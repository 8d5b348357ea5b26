package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "time/tzdata"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	"github.com/tbourn/astro-chart-backend/internal/repo"
)

// newServiceDB opens a private in-memory database with the full schema. A
// single connection keeps transactions and reads on one sqlite handle.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
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
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, balance int64) {
	t.Helper()
	u := &domain.User{ID: id, Username: "user-" + id, Balance: balance, Language: "en", PurchasedProducts: []string{}}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func balanceOf(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var u domain.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Balance
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// ----- fixed ephemeris -----

// fixedProvider returns the same synthetic sky for every request.
type fixedProvider struct {
	lons  map[ephemeris.Body]float64
	cusps []float64
	err   error
	calls int
}

func newFixedProvider() *fixedProvider {
	return &fixedProvider{
		lons: map[ephemeris.Body]float64{
			ephemeris.Sun:       10,
			ephemeris.Moon:      130,
			ephemeris.Mercury:   15,
			ephemeris.Venus:     200,
			ephemeris.Mars:      275,
			ephemeris.Jupiter:   300,
			ephemeris.Saturn:    350,
			ephemeris.Ascendant: 95,
		},
		cusps: []float64{95, 125, 155, 185, 215, 245, 275, 305, 335, 5, 35, 65},
	}
}

func (p *fixedProvider) Positions(_ context.Context, _ time.Time, _, _ float64) (map[ephemeris.Body]ephemeris.Position, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[ephemeris.Body]ephemeris.Position, len(p.lons))
	for b, l := range p.lons {
		out[b] = ephemeris.PositionAt(l)
	}
	return out, nil
}

func (p *fixedProvider) Houses(_ context.Context, _ time.Time, _, _ float64) ([]ephemeris.Cusp, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]ephemeris.Cusp, len(p.cusps))
	for i, l := range p.cusps {
		out[i] = ephemeris.CuspAt(l)
	}
	return out, nil
}
