package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/auth"
	"github.com/JustIkra/tg-restorants-bot/internal/availability"
	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/shopspring/decimal"
)

const testJWTSecret = "test-secret-for-handlers"

// --- Mock fetcher ---

type mockFetcher struct {
	days    []availability.Day
	daysErr error
	menu    []backend.MenuItem
	// menus overrides menu per cafe when set.
	menus map[int64][]backend.MenuItem
}

func (m *mockFetcher) WeekAvailability(context.Context, string, int64) ([]availability.Day, error) {
	return m.days, m.daysErr
}

func (m *mockFetcher) Menu(_ context.Context, _ string, cafeID int64) ([]backend.MenuItem, error) {
	if m.menus != nil {
		return m.menus[cafeID], nil
	}
	return m.menu, nil
}

// --- Test helpers ---

func today() availability.Date {
	return availability.Today(time.Now(), time.UTC)
}

func tomorrow() availability.Date {
	return availability.Today(time.Now().Add(24*time.Hour), time.UTC)
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, tgid int64, role string) *httptest.ResponseRecorder {
	t.Helper()

	// Generate a real JWT token
	token, err := auth.GenerateToken(testJWTSecret, tgid, role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
