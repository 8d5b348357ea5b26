package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Chart{}).TableName():       "charts",
		(User{}).TableName():        "users",
		(Transaction{}).TableName(): "transactions",
		(Revenue{}).TableName():     "revenue",
		(Product{}).TableName():     "products",
		(Reading{}).TableName():     "readings",
		(Idempotency{}).TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Chart{}, &User{}, &Transaction{}, &Revenue{}, &Product{}, &Reading{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&User{}, "ux_users_username") {
		t.Fatalf("expected unique index ux_users_username")
	}
	if !m.HasIndex(&Transaction{}, "idx_tx_user_time") {
		t.Fatalf("expected index idx_tx_user_time")
	}
	if !m.HasIndex(&Reading{}, "idx_readings_user") {
		t.Fatalf("expected index idx_readings_user")
	}
}

func TestUser_BalanceCheckConstraint(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	u := User{ID: "u1", Username: "alice", Balance: 10, Language: "en"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := db.Model(&User{}).Where("id = ?", "u1").Update("balance", -1).Error
	if err == nil {
		t.Fatalf("expected CHECK constraint failure for negative balance")
	}
}

func TestChart_JSONHidesInternalFields(t *testing.T) {
	c := Chart{
		ID:        "c1",
		BirthDate: "1990-01-01",
		BirthTime: "12:00",
		Timezone:  "America/New_York",
		Planets: datatypes.NewJSONType(map[string]PlanetPlacement{
			"Sun": {Sign: "Capricorn", Position: 10.7, House: 10},
		}),
		Houses: datatypes.NewJSONType(map[string]HouseCusp{
			"1": {Sign: "Aries", Position: 3.5},
		}),
		Snapshot: datatypes.NewJSONType(EphemerisSnapshot{
			Longitudes: map[string]float64{"Sun": 280.7},
		}),
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, hidden := range []string{"longitudes", "America/New_York", "unlocked_by"} {
		if strings.Contains(s, hidden) {
			t.Fatalf("response leaked %q: %s", hidden, s)
		}
	}
	for _, want := range []string{`"date":"1990-01-01"`, `"premium_interpretation":null`, `"is_premium_unlocked":false`, `"Capricorn"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
}

func TestChart_SnapshotRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Chart{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	when := time.Date(1990, 1, 1, 17, 0, 0, 0, time.UTC)
	c := Chart{
		ID: "c1", BirthDate: "1990-01-01", BirthTime: "12:00", Timezone: "UTC",
		StandardTime: "17:00:00", SolarTime: "12:00:00", SolarInterpretation: "x", BasicInterpretation: "y",
		Snapshot: datatypes.NewJSONType(EphemerisSnapshot{
			Longitudes:  map[string]float64{"Sun": 280.5, "Moon": 12.25},
			Cusps:       []float64{1, 2, 3},
			HouseSystem: "placidus",
			InstantUTC:  when,
		}),
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Chart
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := got.Snapshot.Data()
	if snap.Longitudes["Moon"] != 12.25 || snap.HouseSystem != "placidus" || !snap.InstantUTC.Equal(when) {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
	if got.IsPremiumUnlocked || got.PremiumInterpretation != nil {
		t.Fatalf("new chart must start locked: %+v", got)
	}
}

func TestRevenue_DecimalPersists(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Revenue{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	r := Revenue{ID: "1", Source: "premium_unlock", Amount: decimal.RequireFromString("20.00"), CreatedAt: time.Now().UTC()}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Revenue
	if err := db.First(&got, "id = ?", "1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("amount = %s; want 20", got.Amount)
	}
}

func TestUser_Owns(t *testing.T) {
	u := User{PurchasedProducts: datatypes.JSONSlice[string]{"1", "7"}}
	if !u.Owns("7") || u.Owns("2") {
		t.Fatalf("Owns mismatch for %v", u.PurchasedProducts)
	}
}
