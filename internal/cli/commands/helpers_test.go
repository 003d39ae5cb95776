package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drimsoft/planifika-admin/internal/cli/config"
	appconfig "github.com/drimsoft/planifika-admin/internal/config"
	"github.com/drimsoft/planifika-admin/internal/tokenstore"
)

const (
	testEmail    = "ana@drimsoft.com"
	testPassword = "secret1"
	testToken    = "tok-ana"

	// testIdentity is Ana's identity provider id. The ticket endpoints know
	// her as idUser 7.
	testIdentity = "3f1c2a9e-7b1d-4c1e-9a55-0d6f1e2b3c4d"
)

// mockBackend simulates every Planifika API the CLI talks to
type mockBackend struct {
	srv *httptest.Server

	mu     sync.Mutex
	calls  []string
	bodies map[string]string
}

func newMockBackend(t *testing.T) *mockBackend {
	t.Helper()
	b := &mockBackend{bodies: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != testEmail || req.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": testToken,
			"user":         map[string]any{"id": testIdentity, "name": "Ana", "email": testEmail, "role": map[string]any{"id": 1, "name": "ADMIN"}},
			"role":         map[string]any{"id": 1, "name": "ADMIN"},
			"userName":     "Ana",
		})
	})
	mux.HandleFunc("GET /auth/me", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": testIdentity, "name": "Ana", "email": testEmail, "role": map[string]any{"id": 1, "name": "ADMIN"}})
	}))
	mux.HandleFunc("PUT /auth/me", authorized(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		name := req["name"]
		if name == "" {
			name = "Ana"
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"db": map[string]any{"id": testIdentity, "name": name}}})
	}))
	mux.HandleFunc("GET /users", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"idUser": 3, "name": "Luis", "role": map[string]any{"id": 1, "name": "ADMIN"}, "status": map[string]any{"id": 1, "name": "Active"}},
			map[string]any{"idUser": 4, "name": "Marta", "role": map[string]any{"id": 2, "name": "SUPPORT"}, "status": map[string]any{"id": 2, "name": "Inactive"}},
			map[string]any{"idUser": 7, "name": "Ana", "supabaseUserId": testIdentity, "role": map[string]any{"id": 1, "name": "ADMIN"}, "status": map[string]any{"id": 1, "name": "Active"}},
		})
	}))
	mux.HandleFunc("PUT /users/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, map[string]any{"idUser": 3, "name": req["name"]})
	}))
	mux.HandleFunc("GET /users/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"idUser": 3, "name": "Luis",
			"role":   map[string]any{"id": 1, "name": "ADMIN"},
			"status": map[string]any{"id": 1, "name": "Active"},
		})
	}))
	mux.HandleFunc("PATCH /users/{id}/roles/{roleId}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"idUser": 3, "name": "Luis",
			"role":   map[string]any{"id": 2, "name": "SUPPORT"},
			"status": map[string]any{"id": 1, "name": "Active"},
		})
	}))
	mux.HandleFunc("PUT /users/{id}/status/{statusId}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"idUser": 3, "name": "Luis"})
	}))
	mux.HandleFunc("DELETE /users/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /organizations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{map[string]any{"id": 1, "nit": "900", "name": "Acme"}, map[string]any{"id": 3, "nit": "902", "name": "Initech"}})
	})
	mux.HandleFunc("GET /organizations/paginated", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"content":       []any{map[string]any{"id": 1, "nit": "900", "name": "Acme"}, map[string]any{"id": 2, "nit": "901", "name": "Globex"}},
			"totalElements": 2,
			"totalPages":    1,
		})
	})
	mux.HandleFunc("GET /organizations/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nit": "900", "name": "Acme", "address": "Calle 1", "domain": "acme.com"})
	})
	mux.HandleFunc("PUT /organizations/{id}", func(w http.ResponseWriter, r *http.Request) {
		var org map[string]any
		_ = json.NewDecoder(r.Body).Decode(&org)
		org["id"] = 1
		writeJSON(w, http.StatusOK, org)
	})
	mux.HandleFunc("GET /organizations/{id}/users", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"idUser": 1, "fullName": "Eve Admin", "email": "eve@acme.com"},
			map[string]any{"idUser": 2, "name": "Bob"},
		})
	})
	mux.HandleFunc("GET /tickets/paged", authorized(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	mux.HandleFunc("GET /tickets", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"idtickets": 1, "title": "Cannot login", "idticketstatus": 1},
			map[string]any{"idtickets": 2, "title": "Invoice", "idticketstatus": 2, "iddrimsoftuser": 7, "drimsoftusername": "Ana"},
			map[string]any{"idtickets": 3, "title": "Export", "idticketstatus": 5, "iddrimsoftuser": 9},
		})
	}))
	mux.HandleFunc("GET /tickets/{id}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"idtickets": 1, "idplanifikauser": 5, "title": "Cannot login",
			"description": "Password reset loop", "idticketstatus": 1,
		})
	}))
	mux.HandleFunc("PATCH /tickets/{id}/{action}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"idtickets": 1, "ticketstatusname": "IN_PROGRESS", "drimsoftusername": "Luis"})
	}))
	mux.HandleFunc("PATCH /tickets/{id}/{action}/{arg}", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"idtickets": 1, "ticketstatusname": "IN_PROGRESS", "drimsoftusername": "Luis"})
	}))
	mux.HandleFunc("GET /planifika/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"idUser": 5, "fullName": "Eve Admin", "email": "eve@acme.com", "idUserType": 1, "organization": map[string]any{"id": 1}},
			map[string]any{"idUser": 6, "name": "Bob", "idUserType": 2},
		})
	})
	mux.HandleFunc("GET /planifika/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "5" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"idUser": 5, "fullName": "Eve Admin"})
	})
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total_users_planifika": 120, "total_tickets": 9, "total_revenue": 1500.5})
	})
	mux.HandleFunc("GET /api/charts/{name}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{map[string]any{"type": "pie"}}, "layout": map[string]any{"title": r.PathValue("name")}})
	})

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.calls = append(b.calls, call)
		b.bodies[call] = string(body)
		b.mu.Unlock()

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		next(w, r)
	}
}

func (b *mockBackend) called(call string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (b *mockBackend) count(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (b *mockBackend) body(call string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[call]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *mockBackend) server() *config.Server {
	return &config.Server{Alias: "test-server", APIBaseURL: b.srv.URL}
}

func (b *mockBackend) backend() appconfig.BackendConfig {
	return appconfig.BackendConfig{
		APIBaseURL:        b.srv.URL,
		OrganizationsURL:  b.srv.URL,
		TicketsURL:        b.srv.URL,
		PlanifikaUsersURL: b.srv.URL + "/planifika",
		StatsURL:          b.srv.URL,
		Timeout:           5 * time.Second,
	}
}

// newTestSession opens a session against the mock backend. With signedIn the
// session starts with a stored login.
func newTestSession(t *testing.T, b *mockBackend, signedIn bool) (*Session, *tokenstore.MemoryBackend) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	mem := tokenstore.NewMemoryBackend()
	s := NewSession(b.server(), b.backend(), mem)

	if signedIn {
		if _, err := s.Gate.Login(t.Context(), testEmail, testPassword); err != nil {
			t.Fatalf("failed to sign in: %v", err)
		}
	}
	return s, mem
}

// mockPrompter answers prompts from canned values
type mockPrompter struct {
	passwords []string
	selects   []int
	confirm   bool

	asked []string
}

func (p *mockPrompter) Password(label string) (string, error) {
	p.asked = append(p.asked, label)
	if len(p.passwords) == 0 {
		return "", fmt.Errorf("unexpected password prompt %q", label)
	}
	v := p.passwords[0]
	p.passwords = p.passwords[1:]
	return v, nil
}

func (p *mockPrompter) Select(label string, items []string, cursor int) (int, error) {
	p.asked = append(p.asked, label)
	if len(p.selects) == 0 {
		return cursor, nil
	}
	v := p.selects[0]
	p.selects = p.selects[1:]
	return v, nil
}

func (p *mockPrompter) Confirm(label string) (bool, error) {
	p.asked = append(p.asked, label)
	return p.confirm, nil
}
