package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP traffic metrics live in the middleware package.
var (
	ChartsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "charts_created_total",
		Help: "Natal charts computed and stored.",
	})

	// PremiumUnlocks is labelled by result: unlocked|already_unlocked|insufficient|not_found|error.
	PremiumUnlocks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_unlocks_total",
		Help: "Premium unlock attempts by outcome.",
	}, []string{"result"})

	// EphemerisCache is labelled by result: hit|miss|error.
	EphemerisCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ephemeris_cache_requests_total",
		Help: "Ephemeris cache lookups by outcome.",
	}, []string{"result"})

	// BalanceDebits counts successful ledger debits by transaction type.
	BalanceDebits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_debits_total",
		Help: "Successful coin debits by ledger type.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(ChartsCreated, PremiumUnlocks, EphemerisCache, BalanceDebits)
}
