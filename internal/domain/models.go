// Package domain defines the persistence models for natal charts and the
// virtual economy around them (users, ledger, revenue, catalog, readings).
// These types are mapped with GORM and form the core data layer of the
// chart backend.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PlanetPlacement is the public placement of a classical body.
//
// Fields:
//   - Sign: zodiac sign name (e.g. "Capricorn").
//   - Position: degree within the sign, [0,30).
//   - House: 1-based house number, 1..12.
type PlanetPlacement struct {
	Sign     string  `json:"sign"`
	Position float64 `json:"position"`
	House    int     `json:"house"`
}

// HouseCusp is the public description of one house cusp.
//
// Fields:
//   - Sign: zodiac sign the cusp falls in.
//   - Position: absolute ecliptic longitude of the cusp, [0,360).
type HouseCusp struct {
	Sign     string  `json:"sign"`
	Position float64 `json:"position"`
}

// EphemerisSnapshot is the internal copy of the ephemeris output captured at
// chart creation. Premium text is regenerated from it without recomputing
// any astronomy. It is never serialized to API callers.
type EphemerisSnapshot struct {
	// Longitudes maps body name (including "Ascendant") to absolute ecliptic
	// longitude in degrees.
	Longitudes  map[string]float64 `json:"longitudes"`
	Cusps       []float64          `json:"cusps"`
	HouseSystem string             `json:"house_system"`
	InstantUTC  time.Time          `json:"instant_utc"`
}

// Chart is a computed natal chart.
//
// Fields:
//   - ID: UUID primary key (char(36)), generated at creation and never reused.
//   - BirthDate / BirthTime: inputs as submitted ("YYYY-MM-DD", "HH:MM").
//   - Latitude / Longitude / Timezone: birth place as submitted.
//   - StandardTime / SolarTime: "HH:MM:SS" clock values (UTC and true solar).
//   - SolarInterpretation: human readable solar time sentence.
//   - Planets: body name -> placement, always the seven classical bodies.
//   - Houses: "1".."12" -> cusp.
//   - BasicInterpretation: Sun/Moon/Ascendant summary, always present.
//   - IsPremiumUnlocked: flips false -> true once, never reverts.
//   - PremiumInterpretation: nil until unlocked.
//   - Snapshot: internal ephemeris copy (json:"-").
//   - UnlockedBy / UnlockedAt: audit of the unlocking user.
type Chart struct {
	ID                    string                                         `json:"id"                     gorm:"type:char(36);primaryKey"`
	BirthDate             string                                         `json:"date"                   gorm:"type:varchar(10);not null"`
	BirthTime             string                                         `json:"time"                   gorm:"type:varchar(5);not null"`
	Latitude              float64                                        `json:"latitude"               gorm:"not null"`
	Longitude             float64                                        `json:"longitude"              gorm:"not null"`
	Timezone              string                                         `json:"-"                      gorm:"type:varchar(64);not null"`
	StandardTime          string                                         `json:"standard_time"          gorm:"type:varchar(8);not null"`
	SolarTime             string                                         `json:"solar_time"             gorm:"type:varchar(8);not null"`
	SolarInterpretation   string                                         `json:"solar_interpretation"   gorm:"type:text;not null"`
	Planets               datatypes.JSONType[map[string]PlanetPlacement] `json:"planets"`
	Houses                datatypes.JSONType[map[string]HouseCusp]       `json:"houses"`
	BasicInterpretation   string                                         `json:"basic_interpretation"   gorm:"type:text;not null"`
	IsPremiumUnlocked     bool                                           `json:"is_premium_unlocked"    gorm:"not null;default:false;index"`
	PremiumInterpretation *string                                        `json:"premium_interpretation" gorm:"type:text"`
	Snapshot              datatypes.JSONType[EphemerisSnapshot]          `json:"-"`
	UnlockedBy            *string                                        `json:"-"                      gorm:"type:varchar(64)"`
	UnlockedAt            *time.Time                                     `json:"-"`
	CreatedAt             time.Time                                      `json:"-"`
	UpdatedAt             time.Time                                      `json:"-"`
}

// TableName returns the database table name for Chart.
func (Chart) TableName() string { return "charts" }

// User is an economy account. Balance and Experience never go negative.
type User struct {
	ID                string                      `json:"id"                 gorm:"type:varchar(64);primaryKey"`
	Username          string                      `json:"username"           gorm:"type:varchar(128);not null;uniqueIndex:ux_users_username"`
	Balance           int64                       `json:"balance"            gorm:"not null;default:0;check:balance >= 0"`
	Experience        int64                       `json:"experience"         gorm:"not null;default:0;check:experience >= 0"`
	Language          string                      `json:"language"           gorm:"type:varchar(8);not null;default:'en'"`
	PurchasedProducts datatypes.JSONSlice[string] `json:"purchased_products"`
	CreatedAt         time.Time                   `json:"-"`
	UpdatedAt         time.Time                   `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Owns reports whether the user already purchased productID.
func (u *User) Owns(productID string) bool {
	for _, p := range u.PurchasedProducts {
		if p == productID {
			return true
		}
	}
	return false
}

// Transaction is an append-only ledger entry. Amount is signed: positive
// for credits, negative for debits.
//
// Fields:
//   - ID: snowflake id rendered as a decimal string.
//   - Type: ledger tag such as "premium_unlock", "purchase", "payment", "ad".
type Transaction struct {
	ID          string    `json:"id"          gorm:"type:varchar(32);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_tx_user_time,priority:1"`
	Amount      int64     `json:"amount"      gorm:"not null"`
	Type        string    `json:"type"        gorm:"type:varchar(32);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index:idx_tx_user_time,priority:2"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// Revenue records real-money income attributed to a source.
type Revenue struct {
	ID        string          `json:"id"         gorm:"type:varchar(32);primaryKey"`
	Source    string          `json:"source"     gorm:"type:varchar(32);not null;index"`
	Amount    decimal.Decimal `json:"amount"     gorm:"type:decimal(12,4);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for Revenue.
func (Revenue) TableName() string { return "revenue" }

// Product is a catalog item priced in coins.
type Product struct {
	ID          string `json:"id"          gorm:"type:varchar(32);primaryKey"`
	Name        string `json:"name"        gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	Price       int64  `json:"price"       gorm:"not null;check:price >= 0"`
	Image       string `json:"image"       gorm:"type:varchar(32)"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Reading is a saved tarot spread.
type Reading struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_readings_user,priority:1"`
	SpreadType string         `json:"spread_type" gorm:"type:varchar(64);not null"`
	Cards      datatypes.JSON `json:"cards"`
	CreatedAt  time.Time      `json:"created_at"  gorm:"index:idx_readings_user,priority:2"`
}

// TableName returns the database table name for Reading.
func (Reading) TableName() string { return "readings" }
