package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drimsoft/planifika-admin/internal/config"
	"github.com/drimsoft/planifika-admin/internal/models"
)

func TestUsers_Create(t *testing.T) {
	var calls []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/auth/signup":
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": map[string]any{"id": "sb-1"}}})
		case "/users":
			assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "sb-1", body["supabaseUserId"])
			assert.Equal(t, map[string]any{"idRole": float64(2)}, body["role"])
			assert.Equal(t, map[string]any{"idUserStatus": float64(1)}, body["status"])
			writeJSON(w, http.StatusCreated, map[string]any{"idUser": 5, "name": "Ana", "supabaseUserId": "sb-1"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, WithTokenSource(StaticToken("t1")))

	user, err := NewUsersAPI(c).Create(context.Background(), CreateUserRequest{
		Name: "Ana", Email: "ana@drimsoft.com", Password: "secret1", RoleID: 2, StatusID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.IDUser)
	assert.Equal(t, []string{"POST /auth/signup", "POST /users"}, calls)
}

func TestUsers_CreateRequiresSession(t *testing.T) {
	_, err := NewUsersAPI(New("http://unused")).Create(context.Background(), CreateUserRequest{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUsers_CreateSignupFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already registered"})
	}, WithTokenSource(StaticToken("t1")))

	_, err := NewUsersAPI(c).Create(context.Background(), CreateUserRequest{Email: "a@b.c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "User already registered", Message(err))
}

func TestUsers_ApplyChangesSendsOnlyChangedFields(t *testing.T) {
	var calls []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"idUser": 3, "status": map[string]any{"id": 2}})
	}, WithTokenSource(StaticToken("t1")))
	users := NewUsersAPI(c)

	current := models.DrimsoftUser{IDUser: 3, Role: models.Role{ID: 1}, Status: models.UserStatus{ID: 1}}

	out, err := users.ApplyChanges(context.Background(), current, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, calls)
	assert.Equal(t, current, *out)

	_, err = users.ApplyChanges(context.Background(), current, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT /users/3/status/2"}, calls)

	calls = nil
	_, err = users.ApplyChanges(context.Background(), current, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"PATCH /users/3/roles/2", "PUT /users/3/status/2"}, calls)
}

func TestUsers_UpdateSendsFields(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT /users/3", r.Method+" "+r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"name": "Luis M"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"idUser": 3, "name": "Luis M"})
	}, WithTokenSource(StaticToken("t1")))

	user, err := NewUsersAPI(c).Update(context.Background(), 3, map[string]any{"name": "Luis M"})
	require.NoError(t, err)
	assert.Equal(t, "Luis M", user.Name)
}

func TestUsers_ResolveInternalID(t *testing.T) {
	const identity = "3f1c2a9e-7b1d-4c1e-9a55-0d6f1e2b3c4d"
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET /users", r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{
			{"idUser": 3, "name": "Luis", "supabaseUserId": "sb-3"},
			{"idUser": 7, "name": "Ana", "supabaseUserId": identity},
			{"idUser": 12, "name": "Legacy"},
		})
	}, WithTokenSource(StaticToken("t1")))
	users := NewUsersAPI(c)

	id, err := users.ResolveInternalID(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	// numeric ids fall back to matching idUser
	id, err = users.ResolveInternalID(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	id, err = users.ResolveInternalID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, id)

	_, err = users.ResolveInternalID(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrganizations_PageNormalizesResponse(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/paginated", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		assert.Equal(t, "acme", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{"totalElements": 41})
	})

	page, err := NewOrganizationsAPI(c).Page(context.Background(), 2, 20, "  acme ")
	require.NoError(t, err)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(41), page.TotalElements)
	assert.Equal(t, 20, page.Size)
	assert.Equal(t, 2, page.Number)
}

func TestOrganizations_PageOmitsBlankSearch(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["search"]
		assert.False(t, ok)
		writeJSON(w, http.StatusOK, map[string]any{"content": []any{}, "number": 0, "size": 10})
	})

	_, err := NewOrganizationsAPI(c).Page(context.Background(), 0, 10, "   ")
	require.NoError(t, err)
}

func TestOrganizations_MemberCounts(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/organizations/1/users":
			writeJSON(w, http.StatusOK, []any{map[string]any{"id": 1}, map[string]any{"id": 2}})
		case "/organizations/2/users":
			writeJSON(w, http.StatusOK, []any{})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	counts := NewOrganizationsAPI(c).MemberCounts(context.Background(), []int64{1, 2, 3})
	assert.Equal(t, map[int64]int{1: 2, 2: 0, 3: 0}, counts)
}

func TestOrganizations_DeleteNoContent(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, NewOrganizationsAPI(c).Delete(context.Background(), 4))
}

func TestFilterVisible(t *testing.T) {
	tickets := []models.Ticket{
		{ID: 1},
		{ID: 2, DrimsoftUserID: 7},
		{ID: 3, DrimsoftUserID: 8},
	}

	ids := func(ts []models.Ticket) []int64 {
		var out []int64
		for _, tk := range ts {
			out = append(out, tk.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2}, ids(FilterVisible(tickets, 7)))
	assert.Equal(t, []int64{1}, ids(FilterVisible(tickets, 0)))
}

func TestTickets_BrowsePaged(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets/paged", r.URL.Path)
		writeJSON(w, http.StatusOK, models.TicketPage{
			Items: []models.Ticket{
				{ID: 1, Title: "Login broken"},
				{ID: 2, Title: "Login slow", DrimsoftUserID: 9},
				{ID: 3, Title: "Billing"},
			},
			Page: 0, TotalPages: 1, TotalElements: 3,
		})
	}, WithTokenSource(StaticToken("t1")))

	page, err := NewTicketsAPI(c).Browse(context.Background(), TicketQuery{Size: 10, Search: "login", ViewerID: 7})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)
	assert.Equal(t, 10, page.Size)
}

func TestTickets_BrowseFallsBackToFullListing(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tickets/paged" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var all []models.Ticket
		for i := 1; i <= 25; i++ {
			all = append(all, models.Ticket{ID: int64(i), Title: fmt.Sprintf("ticket %d", i)})
		}
		writeJSON(w, http.StatusOK, all)
	}, WithTokenSource(StaticToken("t1")))

	page, err := NewTicketsAPI(c).Browse(context.Background(), TicketQuery{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(21), page.Items[0].ID)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestTickets_BrowseHugePageIsEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tickets/paged" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, []models.Ticket{{ID: 1}, {ID: 2}, {ID: 3}})
	}, WithTokenSource(StaticToken("t1")))

	page, err := NewTicketsAPI(c).Browse(context.Background(), TicketQuery{Page: 1 << 62, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
}

func TestPaginate_Bounds(t *testing.T) {
	tickets := make([]models.Ticket, 5)
	for i := range tickets {
		tickets[i].ID = int64(i + 1)
	}

	tests := []struct {
		name       string
		page, size int
		wantIDs    int
		wantFirst  int64
	}{
		{"first page", 0, 2, 2, 1},
		{"last partial page", 2, 2, 1, 5},
		{"past the end", 3, 2, 0, 0},
		{"size overflows", 1, 1 << 62, 0, 0},
		{"page overflows", 1 << 62, 1 << 2, 0, 0},
		{"negative page", -1, 2, 2, 1},
		{"zero size", 0, 0, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := paginate(tickets, tt.page, tt.size)
			require.Len(t, page.Items, tt.wantIDs)
			if tt.wantIDs > 0 {
				assert.Equal(t, tt.wantFirst, page.Items[0].ID)
			}
			assert.Equal(t, int64(5), page.TotalElements)
		})
	}
}

func TestTickets_BrowseDoesNotFallBackOnUnauthorized(t *testing.T) {
	var fullListing atomic.Bool
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tickets" {
			fullListing.Store(true)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}, WithTokenSource(StaticToken("t1")))

	_, err := NewTicketsAPI(c).Browse(context.Background(), TicketQuery{})
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, fullListing.Load())
}

func TestTickets_MarkRead(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tickets/4/read", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"iddrimsoftuser": float64(7)}, body)
		writeJSON(w, http.StatusOK, models.Ticket{ID: 4})
	}, WithTokenSource(StaticToken("t1")))

	tk, err := NewTicketsAPI(c).MarkRead(context.Background(), 4, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tk.ID)
}

func TestPlanifika_AdminsWithOrganizations(t *testing.T) {
	planifika := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		assert.Equal(t, "svc-key", r.Header.Get("x-api-key"))
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"id": 1, "name": "Ada", "idUserType": 1, "idOrganization": 10, "avatarUrl": "https://cdn.example.com/ada.png"},
			map[string]any{"id": 2, "name": "Bo", "idUserType": 2, "idOrganization": 10},
			map[string]any{"id": 3, "name": "Cy", "idUserType": "1", "organization": map[string]any{"id": 11}},
		})
	}, ServiceKeyOptions("svc-key")...)

	orgs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/10") {
			writeJSON(w, http.StatusOK, models.Organization{ID: 10, Name: "Acme"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	admins, err := NewPlanifikaAPI(planifika).AdminsWithOrganizations(context.Background(), NewOrganizationsAPI(orgs))
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "Ada", admins[0].User.DisplayName())
	assert.Equal(t, "Acme", admins[0].OrganizationName)
	assert.Equal(t, "https://cdn.example.com/ada.png", admins[0].PhotoURL)
	assert.Equal(t, "Cy", admins[1].User.DisplayName())
	assert.Empty(t, admins[1].OrganizationName)
}

func TestPlanifika_NonArrayIsEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok"})
	})

	users, err := NewPlanifikaAPI(c).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStats_Chart(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/charts/tasks-status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{map[string]any{"type": "pie"}}, "layout": map[string]any{}})
	})
	stats := NewStatsAPI(c)

	chart, err := stats.Chart(context.Background(), models.ChartTasksStatus)
	require.NoError(t, err)
	assert.Len(t, chart.Data, 1)

	_, err = stats.Chart(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewServices(t *testing.T) {
	s := NewServices(config.BackendConfig{
		APIBaseURL:        "http://api/",
		OrganizationsURL:  "http://orgs",
		TicketsURL:        "http://tickets",
		PlanifikaUsersURL: "http://planifika",
		StatsURL:          "http://stats",
	}, StaticToken("t1"))

	assert.Equal(t, "http://api", s.Auth.c.BaseURL())
	assert.Equal(t, "true", s.Organizations.c.headers.Get(NgrokSkipHeader))
	assert.Equal(t, "true", s.Tickets.c.headers.Get(NgrokSkipHeader))
	assert.Empty(t, s.Planifika.c.headers.Get("x-api-key"))
	assert.Nil(t, s.Planifika.c.tokens)
}
