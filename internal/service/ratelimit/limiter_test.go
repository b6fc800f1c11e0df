package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("full bucket should allow two")
	}
	if l.Allow("a") {
		t.Fatal("empty bucket allowed")
	}
	if !l.Allow("b") {
		t.Fatal("keys must be independent")
	}
	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("refill not applied")
	}
	if l.Allow("a") {
		t.Fatal("refill exceeded elapsed time")
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(time.Hour)
	l.Allow("b")
	if n := l.Sweep(time.Minute); n != 1 {
		t.Fatalf("swept %d", n)
	}
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	l := New(1, 0)
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		Middleware(l, func(c echo.Context) error { return c.NoContent(http.StatusTooManyRequests) }))

	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes %v", codes)
	}
}
