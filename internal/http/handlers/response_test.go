package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/astro-chart-backend/internal/repo"
	"github.com/tbourn/astro-chart-backend/internal/services"
)

// envelopeRouter stamps a request id and a capturing logger the way
// RequestID and AccessLog do in production.
func envelopeRouter(rid string, logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lg := zerolog.New(logs)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Set("logger", &lg)
		c.Next()
	})
	return r
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return er
}

func Test_fail_ServerErrorsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	r := envelopeRouter("rid-chart", &logs)
	r.POST("/charts/create", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeComputationFailed, "chart computation failed")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/charts/create", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := errorBody(t, w); er.RequestID != "rid-chart" || er.Code != ErrCodeComputationFailed {
		t.Fatalf("envelope: %+v", er)
	}
	if !strings.Contains(logs.String(), `"level":"error"`) || !strings.Contains(logs.String(), ErrCodeComputationFailed) {
		t.Fatalf("expected error log, got %q", logs.String())
	}
}

func Test_fail_ClientErrorsAreQuiet(t *testing.T) {
	var logs bytes.Buffer
	r := envelopeRouter("rid-402", &logs)
	r.POST("/unlock", func(c *gin.Context) {
		Fail(c, http.StatusPaymentRequired, ErrCodeInsufficientBalance, "insufficient balance")
	})
	r.GET("/level", func(c *gin.Context) {
		ok(c, http.StatusOK, gin.H{"level": 3, "title": "Adept"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/unlock", nil))
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status=%d", w.Code)
	}
	if er := errorBody(t, w); er.RequestID != "rid-402" || er.Message != "insufficient balance" {
		t.Fatalf("envelope: %+v", er)
	}
	if logs.Len() != 0 {
		t.Fatalf("4xx must not log: %q", logs.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/level", nil))
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["title"] != "Adept" {
		t.Fatalf("ok body = %s (%v)", w.Body.String(), err)
	}
}

func Test_failService_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidTimezone, http.StatusUnprocessableEntity, ErrCodeValidation},
		{fmt.Errorf("resolve: %w", services.ErrAmbiguousLocalTime), http.StatusUnprocessableEntity, ErrCodeValidation},
		{services.ErrChartNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrProductNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrInsufficientBalance, http.StatusPaymentRequired, ErrCodeInsufficientBalance},
		{services.ErrAlreadyOwned, http.StatusBadRequest, ErrCodeAlreadyOwned},
		{services.ErrInvalidLanguage, http.StatusBadRequest, ErrCodeInvalidLanguage},
		{services.ErrInvalidAmount, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrInvalidDateRange, http.StatusBadRequest, ErrCodeBadRequest},
		{repo.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{fmt.Errorf("append ledger: %w", repo.ErrDuplicate), http.StatusConflict, ErrCodeConflict},
		{&services.ComputationError{Stage: "houses", Err: errors.New("nan")}, http.StatusInternalServerError, ErrCodeComputationFailed},
		{errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeCreateFailed},
	}

	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { failService(c, tc.err, ErrCodeCreateFailed) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		if w.Code != tc.status {
			t.Errorf("%v: status=%d want %d", tc.err, w.Code, tc.status)
			continue
		}
		er := errorBody(t, w)
		if er.Code != tc.code {
			t.Errorf("%v: code=%q want %q", tc.err, er.Code, tc.code)
		}
		if tc.status == http.StatusInternalServerError && strings.Contains(er.Message, "disk") {
			t.Errorf("internal error text leaked: %q", er.Message)
		}
	}
}
