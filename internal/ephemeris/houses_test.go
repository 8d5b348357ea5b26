package ephemeris

import (
	"math"
	"testing"
)

const testEps = 23.4392911 * math.Pi / 180

func sumArcs(c []float64) float64 {
	total := 0.0
	for i := range c {
		total += Normalize(c[(i+1)%12] - c[i])
	}
	return total
}

func TestParseHouseSystem(t *testing.T) {
	cases := map[string]HouseSystem{
		"": Placidus, "Placidus": Placidus, "porphyry": Porphyry,
		"EQUAL": Equal, "whole_sign": WholeSign, "whole-sign": WholeSign,
	}
	for in, want := range cases {
		got, err := ParseHouseSystem(in)
		if err != nil || got != want {
			t.Fatalf("ParseHouseSystem(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseHouseSystem("koch"); err == nil {
		t.Fatalf("expected error for unsupported system")
	}
}

func TestNewAngles_Cardinal(t *testing.T) {
	a := newAngles(0, testEps, 0)
	if math.Abs(a.mc) > 1e-9 && math.Abs(a.mc-360) > 1e-9 {
		t.Fatalf("MC at RAMC 0 = %v; want 0", a.mc)
	}
	if math.Abs(a.asc-90) > 1e-9 {
		t.Fatalf("ASC at RAMC 0, equator = %v; want 90", a.asc)
	}
}

func TestCusps_AllSystemsCoverCircle(t *testing.T) {
	for _, sys := range []HouseSystem{Placidus, Porphyry, Equal, WholeSign} {
		for _, lat := range []float64{-90, -89.9, -80, -70, -66.6, -45, -33.9, 0, 12.5, 40.7128, 51.5, 60, 66.6, 67, 69.65, 70, 80, 89.9, 90} {
			for ramc := 0.0; ramc < 360; ramc += 17 {
				a := newAngles(deg2rad(ramc), testEps, deg2rad(lat))
				c := a.cusps(sys)
				if len(c) != 12 {
					t.Fatalf("%s: got %d cusps", sys, len(c))
				}
				for _, v := range c {
					if math.IsNaN(v) || v < 0 || v >= 360 {
						t.Fatalf("%s lat=%v ramc=%v: cusp %v out of range", sys, lat, ramc, v)
					}
				}
				if s := sumArcs(c); math.Abs(s-360) > 1e-6 {
					t.Fatalf("%s lat=%v ramc=%v: arcs sum to %v, cusps %v", sys, lat, ramc, s, c)
				}
				for i := range c {
					if arc := Normalize(c[(i+1)%12] - c[i]); arc <= 0 {
						t.Fatalf("%s lat=%v ramc=%v: house %d is empty, cusps %v", sys, lat, ramc, i+1, c)
					}
				}
			}
		}
	}
}

func TestCusps_FirstAndTenthAreAngles(t *testing.T) {
	a := newAngles(deg2rad(123), testEps, deg2rad(40.7))
	for _, sys := range []HouseSystem{Placidus, Porphyry} {
		c := a.cusps(sys)
		if math.Abs(c[0]-a.asc) > 1e-9 || math.Abs(c[9]-a.mc) > 1e-9 {
			t.Fatalf("%s: cusp1=%v asc=%v cusp10=%v mc=%v", sys, c[0], a.asc, c[9], a.mc)
		}
		if math.Abs(Normalize(c[6]-c[0])-180) > 1e-9 || math.Abs(Normalize(c[3]-c[9])-180) > 1e-9 {
			t.Fatalf("%s: opposite cusps not 180 apart: %v", sys, c)
		}
	}
}

func TestEqualAndWholeSign(t *testing.T) {
	a := newAngles(deg2rad(200), testEps, deg2rad(35))
	eq := a.cusps(Equal)
	for i := range eq {
		if want := Normalize(a.asc + float64(i)*30); math.Abs(eq[i]-want) > 1e-9 {
			t.Fatalf("equal cusp %d = %v; want %v", i+1, eq[i], want)
		}
	}
	ws := a.cusps(WholeSign)
	if math.Mod(ws[0], 30) != 0 || a.asc < ws[0] || a.asc >= ws[0]+30 {
		t.Fatalf("whole sign first cusp %v should open the Ascendant's sign (asc %v)", ws[0], a.asc)
	}
}

func TestPlacidus_EquatorTrisectsRightAscension(t *testing.T) {
	ramc := deg2rad(77)
	a := newAngles(ramc, testEps, 0)
	c, ok := placidusCusps(a)
	if !ok {
		t.Fatalf("placidus should be defined at the equator")
	}
	want := map[int]float64{
		10: raToLongitude(ramc+deg2rad(30), testEps),
		11: raToLongitude(ramc+deg2rad(60), testEps),
		1:  raToLongitude(ramc+deg2rad(120), testEps),
		2:  raToLongitude(ramc+deg2rad(150), testEps),
	}
	for idx, w := range want {
		if math.Abs(c[idx]-w) > 1e-7 {
			t.Fatalf("house %d = %v; want %v", idx+1, c[idx], w)
		}
	}
}

func TestPlacidus_PolarFallsBackToPorphyry(t *testing.T) {
	a := newAngles(deg2rad(10), testEps, deg2rad(80))
	if _, ok := placidusCusps(a); ok {
		t.Fatalf("placidus should be undefined at 80N")
	}
	got := a.cusps(Placidus)
	want := porphyryCusps(a.asc, a.mc)
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("fallback cusp %d = %v; want %v", i+1, got[i], want[i])
		}
	}
}

func TestPorphyry_PolarFlipsMidheaven(t *testing.T) {
	// Inside the polar circle the Ascendant can sit west of the MC.
	flipped := 0
	for ramc := 0.0; ramc < 360; ramc += 5 {
		a := newAngles(deg2rad(ramc), testEps, deg2rad(69.65))
		if Normalize(a.asc-a.mc) <= 180 {
			continue
		}
		flipped++
		c := porphyryCusps(a.asc, a.mc)
		if c[0] != a.asc {
			t.Fatalf("ramc=%v: cusp 1 = %v; want asc %v", ramc, c[0], a.asc)
		}
		if d := Normalize(c[9] - a.mc); math.Abs(d-180) > 1e-9 {
			t.Fatalf("ramc=%v: cusp 10 = %v; want opposite of mc %v", ramc, c[9], a.mc)
		}
		if !partitions(c) {
			t.Fatalf("ramc=%v: cusps do not partition the circle: %v", ramc, c)
		}
	}
	if flipped == 0 {
		t.Fatal("expected some sidereal times with the Ascendant west of the MC")
	}
}

func TestPorphyry_CoincidentAnglesAreEqualHouses(t *testing.T) {
	got := porphyryCusps(100, 100)
	want := equalCusps(100)
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("cusp %d = %v; want %v", i+1, got[i], want[i])
		}
	}
}

func TestPartitions(t *testing.T) {
	if !partitions(equalCusps(17)) {
		t.Fatal("equal cusps should partition")
	}
	lapped := equalCusps(0)
	lapped[1], lapped[2] = lapped[2], lapped[1]
	if partitions(lapped) {
		t.Fatal("out of order cusps must not partition")
	}
	dup := equalCusps(0)
	dup[5] = dup[4]
	if partitions(dup) {
		t.Fatal("an empty house must not partition")
	}
}
