package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func TestCreateChart_ReturnsFullChart(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/charts/create", nyBirth)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	raw := decode[map[string]any](t, w)
	for _, hidden := range []string{"snapshot", "Snapshot", "timezone", "unlocked_by"} {
		if _, found := raw[hidden]; found {
			t.Errorf("response exposes %q", hidden)
		}
	}
	if v, found := raw["premium_interpretation"]; !found || v != nil {
		t.Errorf("premium_interpretation = %v (present=%v); want null", v, found)
	}

	got := decode[ChartResponse](t, w)
	if got.ID == "" || got.Date != "1990-01-01" || got.Time != "12:00" {
		t.Fatalf("identity fields: %+v", got)
	}
	if got.IsPremiumUnlocked {
		t.Fatal("new chart must be locked")
	}
	if len(got.Planets) != 7 {
		t.Fatalf("planets = %d; want 7", len(got.Planets))
	}
	for _, body := range []string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn"} {
		p, found := got.Planets[body]
		if !found {
			t.Fatalf("missing %s", body)
		}
		if p.Position < 0 || p.Position >= 30 || p.House < 1 || p.House > 12 || p.Sign == "" {
			t.Errorf("%s placement out of range: %+v", body, p)
		}
	}
	if len(got.Houses) != 12 {
		t.Fatalf("houses = %d; want 12", len(got.Houses))
	}
	for i := 1; i <= 12; i++ {
		hc, found := got.Houses[strconv.Itoa(i)]
		if !found || hc.Position < 0 || hc.Position >= 360 {
			t.Errorf("house %d = %+v (present=%v)", i, hc, found)
		}
	}
	if got.StandardTime != "17:00:00" {
		t.Errorf("standard_time = %q; want 17:00:00", got.StandardTime)
	}
	if !strings.HasPrefix(got.SolarInterpretation, "True Solar Time is ") {
		t.Errorf("solar_interpretation = %q", got.SolarInterpretation)
	}
	if !strings.Contains(got.BasicInterpretation, "Sun in ") {
		t.Errorf("basic_interpretation = %q", got.BasicInterpretation)
	}
}

func TestCreateChart_ValidationIs422(t *testing.T) {
	e := newTestEnv(t)
	with := func(kv ...any) map[string]any {
		m := map[string]any{}
		for k, v := range nyBirth {
			m[k] = v
		}
		for i := 0; i+1 < len(kv); i += 2 {
			k := kv[i].(string)
			if kv[i+1] == nil {
				delete(m, k)
			} else {
				m[k] = kv[i+1]
			}
		}
		return m
	}

	cases := []struct {
		name string
		body any
	}{
		{"bad date", with("birth_date", "1990-13-01")},
		{"bad time", with("birth_time", "12h00")},
		{"latitude high", with("latitude", 91.0)},
		{"longitude low", with("longitude", -180.5)},
		{"unknown zone", with("timezone", "Mars/Olympus")},
		{"missing latitude", with("latitude", nil)},
		// 1990-04-01 is the New York spring-forward day.
		{"dst gap", with("birth_date", "1990-04-01", "birth_time", "02:30")},
		{"not json", "{"},
	}

	for _, tc := range cases {
		w := e.do(http.MethodPost, "/charts/create", tc.body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d; want 422 (%s)", tc.name, w.Code, w.Body.String())
			continue
		}
		if got := decode[ErrorResponse](t, w); got.Code != ErrCodeValidation {
			t.Errorf("%s: code = %q", tc.name, got.Code)
		}
	}

	var n int64
	e.db.Table("charts").Count(&n)
	if n != 0 {
		t.Fatalf("charts stored after failures: %d", n)
	}
}

func TestCreateChart_ZeroCoordinatesAreValid(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/charts/create", map[string]any{
		"birth_date": "2000-06-21", "birth_time": "00:00",
		"latitude": 0, "longitude": 0, "timezone": "UTC",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestGetChart(t *testing.T) {
	e := newTestEnv(t)
	created := e.createChart(t)

	w := e.do(http.MethodGet, "/charts/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[ChartResponse](t, w)
	if got.ID != created.ID || got.BasicInterpretation != created.BasicInterpretation {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	expectError(t, e.do(http.MethodGet, "/charts/does-not-exist", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestUnlockPremium_ChargesOnce(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "rich", 5000)
	chart := e.createChart(t)
	path := "/charts/" + chart.ID + "/unlock-premium"

	w := e.do(http.MethodPost, path, map[string]string{"user_id": "rich"})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock: %d %s", w.Code, w.Body.String())
	}
	got := decode[ChartResponse](t, w)
	if !got.IsPremiumUnlocked || got.PremiumInterpretation == nil || *got.PremiumInterpretation == "" {
		t.Fatalf("premium not attached: %+v", got)
	}
	if b := e.balance(t, "rich"); b != 3000 {
		t.Fatalf("balance = %d; want 3000", b)
	}

	// A second unlock returns the same text for free.
	w = e.do(http.MethodPost, path, map[string]string{"user_id": "rich"})
	if w.Code != http.StatusOK {
		t.Fatalf("second unlock: %d", w.Code)
	}
	again := decode[ChartResponse](t, w)
	if *again.PremiumInterpretation != *got.PremiumInterpretation {
		t.Fatal("premium text changed")
	}
	if b := e.balance(t, "rich"); b != 3000 {
		t.Fatalf("balance after repeat = %d; want 3000", b)
	}
}

func TestUnlockPremium_Errors(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "poor", 1999)
	chart := e.createChart(t)
	path := "/charts/" + chart.ID + "/unlock-premium"

	expectError(t, e.do(http.MethodPost, path, map[string]string{"user_id": "poor"}), http.StatusPaymentRequired, ErrCodeInsufficientBalance)
	if b := e.balance(t, "poor"); b != 1999 {
		t.Fatalf("balance changed on failure: %d", b)
	}
	expectError(t, e.do(http.MethodPost, path, map[string]string{"user_id": "ghost"}), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodPost, "/charts/nope/unlock-premium", map[string]string{"user_id": "poor"}), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(http.MethodPost, path, map[string]string{}), http.StatusBadRequest, ErrCodeBadRequest)

	w := e.do(http.MethodGet, "/charts/"+chart.ID, nil)
	if decode[ChartResponse](t, w).IsPremiumUnlocked {
		t.Fatal("chart unlocked by a failed request")
	}
}

func TestUnlockPremium_IdempotencyKeyReplays(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "rich", 5000)
	chart := e.createChart(t)
	path := "/charts/" + chart.ID + "/unlock-premium"
	body := map[string]string{"user_id": "rich"}

	w := e.do(http.MethodPost, path, body, "Idempotency-Key", "unlock-1")
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first: %d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	w = e.do(http.MethodPost, path, body, "Idempotency-Key", "unlock-1")
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("retry: %d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	if !decode[ChartResponse](t, w).IsPremiumUnlocked {
		t.Fatal("replay must show the unlocked chart")
	}
	if b := e.balance(t, "rich"); b != 3000 {
		t.Fatalf("balance = %d; want 3000", b)
	}

	expectError(t, e.do(http.MethodPost, path, body, "Idempotency-Key", "bad key!"), http.StatusBadRequest, "bad_idempotency_key")
}
