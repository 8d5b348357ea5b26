// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, access logging, panic recovery, compression,
// metrics, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/astro-chart-backend/docs"
	"github.com/tbourn/astro-chart-backend/internal/config"
	"github.com/tbourn/astro-chart-backend/internal/ephemeris"
	"github.com/tbourn/astro-chart-backend/internal/http/handlers"
	"github.com/tbourn/astro-chart-backend/internal/http/middleware"
	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

// repo.Store must satisfy every repository contract the services declare.
var (
	_ services.ChartRepo   = repo.Store{}
	_ services.LedgerRepo  = repo.Store{}
	_ services.UserRepo    = repo.Store{}
	_ services.WalletRepo  = repo.Store{}
	_ services.ProductRepo = repo.Store{}
	_ services.ReadingRepo = repo.Store{}
	_ services.RevenueRepo = repo.Store{}
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
)

// NewServices builds the application services over db, configured from cfg.
// The provider computes positions and cusps for the configured house system.
func NewServices(db *gorm.DB, provider ephemeris.Provider, cfg config.Config) handlers.Services {
	store := repo.Store{}

	charts := services.NewChartService(db, store, store, provider)
	if sys, err := ephemeris.ParseHouseSystem(cfg.Chart.HouseSystem); err == nil {
		charts.HouseSystem = sys
	}
	if cfg.Economy.PremiumUnlockCost > 0 {
		charts.UnlockCost = cfg.Economy.PremiumUnlockCost
		charts.UnlockRevenue = cfg.Economy.PremiumRevenueUSD
	}

	wallet := services.NewWalletService(db, store)
	if !cfg.Economy.PaymentRevenueRate.IsZero() || !cfg.Economy.AdRevenueUSD.IsZero() {
		wallet.PaymentRevenueRate = cfg.Economy.PaymentRevenueRate
		wallet.AdRevenue = cfg.Economy.AdRevenueUSD
	}

	products := services.NewProductService(db, store)
	if cfg.Economy.CoinsPerUSD > 0 {
		products.CoinsPerUSD = cfg.Economy.CoinsPerUSD
		products.PurchaseXP = cfg.Economy.PurchaseXP
	}

	return handlers.Services{
		Charts:   charts,
		Users:    services.NewUserService(db, store),
		Wallet:   wallet,
		Products: products,
		Readings: services.NewReadingService(db, store),
		Revenue:  services.NewRevenueService(db, store),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. The API is mounted under cfg.APIBasePath and, when
// cfg.LegacyRoutes is set, also at the root for older clients.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with birth data scrubbed
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, provider ephemeris.Provider, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	// 1 MiB is far above any chart or reading payload.
	r.Use(limitBody(1 << 20))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, resourceID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, resourceID, key, now)
			if err != nil {
				return false, err
			}
			return rec != nil, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// ACAO "*" even without an Origin header, so health probes and curl see it too.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Balances and ledgers must never sit in a shared cache.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	health := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	r.GET("/health", health)
	r.GET("/healthz", health)

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(NewServices(db, provider, cfg))
	if cfg.IdempotencyTTL > 0 {
		h.IdempotencyTTL = cfg.IdempotencyTTL
	}

	mountAPI(groupWithPrefix(r, cfg.APIBasePath), h)
	if cfg.LegacyRoutes && cfg.APIBasePath != "/" && cfg.APIBasePath != "" {
		mountAPI(r.Group(""), h)
	}
}

// mountAPI registers the public endpoints on g.
func mountAPI(g *gin.RouterGroup, h *handlers.Handlers) {
	// Charts
	g.POST("/charts/create", h.CreateChart)
	g.GET("/charts/:id", h.GetChart)
	g.POST("/charts/:id/unlock-premium", h.UnlockPremium)

	// Users and progression
	g.POST("/users", h.CreateUser)
	g.GET("/users/by-username/:username", h.GetUserByUsername)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id/language", h.UpdateLanguage)
	g.GET("/users/:id/level", h.GetLevel)
	g.POST("/users/:id/experience", h.AddExperience)

	// Wallet
	g.POST("/users/:id/balance/add", h.AddBalance)
	g.POST("/users/:id/balance/deduct", h.DeductBalance)
	g.GET("/users/:id/transactions", h.ListTransactions)

	// Catalog
	g.GET("/products", h.ListProducts)
	g.POST("/products/:id/purchase", h.PurchaseProduct)

	// Readings and revenue
	g.POST("/readings/:user_id", h.SaveReading)
	g.GET("/readings/:user_id", h.ListReadings)
	g.GET("/revenue/summary", h.RevenueSummary)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
