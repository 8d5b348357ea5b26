package ephemeris

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/astro-chart-backend/internal/cache"
)

type countingProvider struct {
	positions atomic.Int32
	houses    atomic.Int32
	err       error
}

func (c *countingProvider) Positions(context.Context, time.Time, float64, float64) (map[Body]Position, error) {
	c.positions.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return map[Body]Position{Sun: PositionAt(280.5), Ascendant: PositionAt(12)}, nil
}

func (c *countingProvider) Houses(context.Context, time.Time, float64, float64) ([]Cusp, error) {
	c.houses.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []Cusp{CuspAt(12), CuspAt(40)}, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Delete(context.Context, string) error { return nil }
func (brokenCache) Close() error                         { return nil }

func TestCachedProvider_ServesRepeatsFromCache(t *testing.T) {
	next := &countingProvider{}
	p := &CachedProvider{Next: next, Cache: cache.NewMemory(16, 0), TTL: time.Hour, System: Placidus}
	ctx := context.Background()
	at := time.Date(1990, 1, 1, 12, 0, 0, 0, time.UTC)

	first, err := p.Positions(ctx, at, 10, 20)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	second, err := p.Positions(ctx, at, 10, 20)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if next.positions.Load() != 1 {
		t.Fatalf("provider called %d times; want 1", next.positions.Load())
	}
	if first[Sun] != second[Sun] || first[Ascendant] != second[Ascendant] {
		t.Fatalf("cached value differs: %+v vs %+v", first, second)
	}

	if _, err := p.Positions(ctx, at, 10.5, 20); err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if next.positions.Load() != 2 {
		t.Fatalf("different location should miss the cache")
	}

	for i := 0; i < 3; i++ {
		cusps, err := p.Houses(ctx, at, 10, 20)
		if err != nil || len(cusps) != 2 || cusps[1].Sign != "Taurus" {
			t.Fatalf("Houses = %+v, %v", cusps, err)
		}
	}
	if next.houses.Load() != 1 {
		t.Fatalf("houses computed %d times; want 1", next.houses.Load())
	}
}

func TestCachedProvider_CacheFailureFallsThrough(t *testing.T) {
	next := &countingProvider{}
	p := &CachedProvider{Next: next, Cache: brokenCache{}, TTL: time.Hour}
	at := time.Unix(0, 0)
	for i := 0; i < 2; i++ {
		if _, err := p.Positions(context.Background(), at, 0, 0); err != nil {
			t.Fatalf("Positions: %v", err)
		}
	}
	if next.positions.Load() != 2 {
		t.Fatalf("provider called %d times; want 2", next.positions.Load())
	}
}

func TestCachedProvider_ProviderErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	next := &countingProvider{err: boom}
	mem := cache.NewMemory(4, 0)
	p := &CachedProvider{Next: next, Cache: mem, TTL: time.Hour}
	if _, err := p.Houses(context.Background(), time.Unix(0, 0), 0, 0); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("error result was cached")
	}
}

func TestCachedProvider_CorruptEntryIsDropped(t *testing.T) {
	next := &countingProvider{}
	mem := cache.NewMemory(4, 0)
	p := &CachedProvider{Next: next, Cache: mem, TTL: time.Hour}
	at := time.Unix(100, 0)
	ctx := context.Background()
	_ = mem.Set(ctx, p.key("pos", at, 1, 2), []byte("{not json"), 0)

	pos, err := p.Positions(ctx, at, 1, 2)
	if err != nil || pos[Sun].Sign != "Capricorn" {
		t.Fatalf("Positions = %+v, %v", pos, err)
	}
	if next.positions.Load() != 1 {
		t.Fatalf("corrupt entry should force recompute")
	}
}
