package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/auth"
	"github.com/JustIkra/tg-restorants-bot/internal/backend"
	"github.com/JustIkra/tg-restorants-bot/internal/config"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/JustIkra/tg-restorants-bot/internal/events"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	"github.com/JustIkra/tg-restorants-bot/internal/router"
	"github.com/JustIkra/tg-restorants-bot/internal/service"
	"github.com/JustIkra/tg-restorants-bot/internal/session"
	"github.com/JustIkra/tg-restorants-bot/internal/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, AllowedOrigins: []string{"http://localhost:3000"}}

	// Nothing listens here; routes under test never reach the backend.
	client := backend.NewClient("http://127.0.0.1:1", nil)
	store := handoff.NewMemoryStore()
	sessions := session.NewManager(client, time.UTC, zap.NewNop())
	t.Cleanup(sessions.Shutdown)

	hub := ws.NewHub(zap.NewNop())
	go hub.Run()

	return router.New(cfg, router.Deps{
		Sessions: sessions,
		Handoffs: store,
		Checkout: service.NewCheckoutService(store, client, events.Nop{}, zap.NewNop()),
		Admin:    service.NewAdminService(client, events.Nop{}, zap.NewNop()),
		Hub:      hub,
		Logger:   zap.NewNop(),
	})
}

func do(t *testing.T, r http.Handler, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, err := auth.GenerateToken(testSecret, 42, role, time.Hour)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, setupRouter(t), "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("body: got %s", rr.Body.String())
	}
}

func TestRoutes_Auth(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{"sessions anonymous", "POST", "/sessions", "", http.StatusUnauthorized},
		{"sessions user", "POST", "/sessions", enum.UserRoleUser, http.StatusCreated},
		{"checkout anonymous", "POST", "/checkout", "", http.StatusUnauthorized},
		{"admin anonymous", "DELETE", "/admin/cafes/1", "", http.StatusUnauthorized},
		{"admin as user", "DELETE", "/admin/cafes/1", enum.UserRoleUser, http.StatusForbidden},
		{"admin without console", "DELETE", "/admin/cafes/1", enum.UserRoleManager, http.StatusConflict},
		{"ws without token", "GET", "/ws/admin", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, tt.method, tt.path, tt.role)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest("OPTIONS", "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin: got %q", got)
	}
}
