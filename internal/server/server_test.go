package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/north/internal/engine"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	e, err := engine.Open(context.Background(), nil, engine.Options{
		Now:      func() time.Time { return time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { e.Close(context.Background()) })
	cfg.Engine = e
	return New(cfg).Router()
}

func TestHealthSkipsToken(t *testing.T) {
	h := newTestServer(t, Config{APIToken: "tok"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	h := newTestServer(t, Config{APIToken: "tok"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/streak", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/api/streak", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMissIsRateLimited(t *testing.T) {
	h := newTestServer(t, Config{RateLimit: 2, RateWindow: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/contracts/unknown/miss", nil))
		codes = append(codes, rec.Code)
	}
	want := []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestOptionalRoutesAbsent(t *testing.T) {
	h := newTestServer(t, Config{})

	for _, path := range []string{"/api/push/vapid-key", "/api/backups/status"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}
