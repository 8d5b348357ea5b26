package ephemeris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/astro-chart-backend/internal/cache"
	"github.com/tbourn/astro-chart-backend/internal/observability"
)

// CachedProvider memoizes another Provider. Results are pure functions of
// (instant, lat, lon, house system), so entries never go stale; the TTL only
// bounds memory. Cache failures are logged and fall through to Next.
type CachedProvider struct {
	Next   Provider
	Cache  cache.Cache
	TTL    time.Duration
	System HouseSystem // part of the key for Houses
}

// Positions implements Provider.
func (p *CachedProvider) Positions(ctx context.Context, instant time.Time, lat, lon float64) (map[Body]Position, error) {
	key := p.key("pos", instant, lat, lon)
	var out map[Body]Position
	if p.load(ctx, key, &out) {
		return out, nil
	}
	out, err := p.Next.Positions(ctx, instant, lat, lon)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, out)
	return out, nil
}

// Houses implements Provider.
func (p *CachedProvider) Houses(ctx context.Context, instant time.Time, lat, lon float64) ([]Cusp, error) {
	key := p.key("houses:"+string(p.System), instant, lat, lon)
	var out []Cusp
	if p.load(ctx, key, &out) {
		return out, nil
	}
	out, err := p.Next.Houses(ctx, instant, lat, lon)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, out)
	return out, nil
}

func (p *CachedProvider) key(kind string, instant time.Time, lat, lon float64) string {
	return fmt.Sprintf("eph:%s:%d:%.6f:%.6f", kind, instant.UTC().Unix(), lat, lon)
}

func (p *CachedProvider) load(ctx context.Context, key string, dst any) bool {
	raw, err := p.Cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		observability.EphemerisCache.WithLabelValues("miss").Inc()
		return false
	case err != nil:
		observability.EphemerisCache.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("ephemeris cache get failed")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		observability.EphemerisCache.WithLabelValues("error").Inc()
		_ = p.Cache.Delete(ctx, key)
		return false
	}
	observability.EphemerisCache.WithLabelValues("hit").Inc()
	return true
}

func (p *CachedProvider) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.Cache.Set(ctx, key, raw, p.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ephemeris cache set failed")
	}
}
