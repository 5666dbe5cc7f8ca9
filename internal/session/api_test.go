package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge/platform/internal/kvstore"
	"github.com/carebridge/platform/internal/patient"
	"github.com/carebridge/platform/internal/shared/auth"
	"github.com/carebridge/platform/internal/shared/config"
	"github.com/carebridge/platform/internal/shared/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

	seed := patient.Seed{
		Caregiver: patient.Caregiver{ID: types.NewID(), Name: "Alex Johnson"},
	}
	store := patient.NewStore(context.Background(), kvstore.NewMemory(), nil, zerolog.Nop(), seed)

	handler := NewHandler(cfg, store)
	r := chi.NewRouter()
	r.Mount("/auth", handler.Routes())
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg))
		r.Mount("/session", handler.ProtectedRoutes())
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// TestLoginIssuesUsableToken tests the login round trip through the
// auth middleware
func TestLoginIssuesUsableToken(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"name": "Jordan Lee"})
	resp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var login struct {
		Token     string            `json:"token"`
		Caregiver patient.Caregiver `json:"caregiver"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("Expected a session token")
	}
	if login.Caregiver.Name != "Alex Johnson" {
		t.Errorf("Expected caregiver profile in response, got %s", login.Caregiver.Name)
	}

	// The issued token must pass the middleware
	req, _ := http.NewRequest("GET", srv.URL+"/session/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)

	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Session request failed: %v", err)
	}
	defer meResp.Body.Close()

	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from /session/me, got %d", meResp.StatusCode)
	}

	var me struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("Failed to decode session response: %v", err)
	}
	if me.Name != "Jordan Lee" {
		t.Errorf("Expected session name Jordan Lee, got %s", me.Name)
	}
}

// TestProtectedRouteRejectsMissingToken tests unauthenticated access
func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/session/me")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/session/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for garbage token, got %d", resp2.StatusCode)
	}
}
